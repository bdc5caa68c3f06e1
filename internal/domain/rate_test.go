package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateRecordDecodeSellMarkers(t *testing.T) {
	cases := map[string]string{
		"null":    `{"DetailName":"a","WeBuy":1,"WeSell":null}`,
		"empty":   `{"DetailName":"a","WeBuy":1,"WeSell":""}`,
		"dash":    `{"DetailName":"a","WeBuy":1,"WeSell":"-"}`,
		"missing": `{"DetailName":"a","WeBuy":1}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			var r RateRecord
			require.NoError(t, json.Unmarshal([]byte(in), &r))
			assert.Nil(t, r.WeSell)
			assert.True(t, r.WeBuy.Equal(decimal.NewFromInt(1)))
		})
	}
}

func TestRateRecordDecodeNumericForms(t *testing.T) {
	var r RateRecord
	require.NoError(t, json.Unmarshal([]byte(`{"DetailName":"x","WeBuy":"1,938.50","WeSell":1942.30}`), &r))
	assert.Equal(t, "1938.5", r.WeBuy.String())
	require.NotNil(t, r.WeSell)
	assert.Equal(t, "1942.3", r.WeSell.String())
}

func TestRateRecordDecodeRejectsMissingBuy(t *testing.T) {
	var r RateRecord
	assert.Error(t, json.Unmarshal([]byte(`{"DetailName":"x","WeSell":2}`), &r))
	assert.Error(t, json.Unmarshal([]byte(`{"DetailName":"x","WeBuy":"abc"}`), &r))
}

func TestRateRecordEncodesNumbers(t *testing.T) {
	sell := decimal.RequireFromString("1942.30")
	b, err := json.Marshal(RateRecord{DetailName: "g", WeBuy: decimal.RequireFromString("1938.50"), WeSell: &sell})
	require.NoError(t, err)
	assert.JSONEq(t, `{"DetailName":"g","WeBuy":1938.5,"WeSell":1942.3}`, string(b))

	b, err = json.Marshal(RateRecord{DetailName: "g", WeBuy: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"DetailName":"g","WeBuy":5}`, string(b))
}

func TestBatchDedupeLastWins(t *testing.T) {
	b := Batch{OurRates: []RateRecord{
		{DetailName: "a", WeBuy: decimal.NewFromInt(1)},
		{DetailName: "b", WeBuy: decimal.NewFromInt(2)},
		{DetailName: "a", WeBuy: decimal.NewFromInt(3)},
	}}
	got := b.Dedupe()
	require.Len(t, got.OurRates, 2)
	assert.Equal(t, "a", got.OurRates[0].DetailName)
	assert.True(t, got.OurRates[0].WeBuy.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 2, got.Len())
}

func TestNewExtractionJobTimeouts(t *testing.T) {
	script := 90 * time.Second
	ttt := NewExtractionJob(Vendor{Site: SiteTTTBullion, Company: "TTT", URL: "u"}, time.Second, time.Second, script)
	assert.Equal(t, 60*time.Second, ttt.OverallTimeout)

	ms := NewExtractionJob(Vendor{Site: SiteMSGold, Company: "MS", URL: "u"}, time.Second, time.Second, script)
	assert.Equal(t, script, ms.OverallTimeout)
	assert.Equal(t, "MS", ms.Company)
}

func TestParseSite(t *testing.T) {
	s, err := ParseSite(" MSGold ")
	require.NoError(t, err)
	assert.Equal(t, SiteMSGold, s)
	_, err = ParseSite("kitco")
	assert.Error(t, err)
}
