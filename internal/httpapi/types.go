package httpapi

import "goldrates-engine/internal/poll"

type StatusResponse struct {
	Cycle     poll.Status `json:"cycle"`
	Scheduler string      `json:"scheduler"`
	Paused    bool        `json:"paused"`
}

type RunResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}
