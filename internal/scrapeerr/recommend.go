package scrapeerr

import "fmt"

// Recommend returns the operator guidance logged after a failed cycle.
// alternate names the other configured vendor, if any.
func Recommend(t Type, site, alternate string) []string {
	switchTo := "switch to another configured vendor"
	if alternate != "" {
		switchTo = fmt.Sprintf("switch sites.option to %s", alternate)
	}

	out := []string{fmt.Sprintf("recommendation for %s:", site)}
	switch t {
	case Navigation:
		out = append(out,
			"the vendor page could not be loaded; it may be down or its URL changed",
			"verify the configured URL, or "+switchTo)
	case TableNotFound:
		out = append(out,
			"the rates table was not found; the page structure has likely changed",
			"update the extractor for this vendor, or "+switchTo)
	case DataStructure:
		out = append(out,
			"the rates table is present but holds no data rows",
			"the table format changed; update the row extraction rules")
	case Extraction:
		out = append(out,
			"rows were found but no rate values could be parsed",
			"adjust the numeric parsing or label rules for this vendor")
	case Network:
		out = append(out,
			"a network error prevented loading the page",
			"check connectivity, DNS and firewall rules from this host")
	default:
		out = append(out,
			"the renderer failed for an unclassified reason",
			"check the renderer diagnostics, or "+switchTo)
	}
	return out
}
