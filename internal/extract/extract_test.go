package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldrates-engine/internal/domain"
	"goldrates-engine/internal/scrapeerr"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

const msGoldPage = `<html><body>
<table>
  <tr><td>DETAILS</td><td>WE BUY</td><td>WE SELL</td></tr>
  <tr><td>GOLD 999.9 (USD/oz)</td><td>1,938.50</td><td>1,942.30</td></tr>
  <tr><td>GOLD 999.9 (MYR/kg)</td><td>1940.00</td><td>1943.80</td></tr>
</table>
<table>
  <tr><td>DETAILS</td><td>WE BUY</td></tr>
  <tr><td>Gold 916 (22K)</td><td>RM 310.20</td></tr>
  <tr><td>Gold 750 (18K)</td><td>-</td></tr>
  <tr><td>Silver</td><td>3.10</td></tr>
</table>
</body></html>`

func TestExtractMSGold(t *testing.T) {
	v, err := For(domain.SiteMSGold)
	require.NoError(t, err)

	b, serr := Extract(doc(t, msGoldPage), v, nil)
	require.Nil(t, serr)

	require.Len(t, b.OurRates, 2)
	assert.Equal(t, "999.9 Gold USD / Oz", b.OurRates[0].DetailName)
	assert.True(t, b.OurRates[0].WeBuy.Equal(dec("1938.50")))
	require.NotNil(t, b.OurRates[0].WeSell)
	assert.True(t, b.OurRates[0].WeSell.Equal(dec("1942.30")))
	assert.Equal(t, "999.9 Gold MYR / KG", b.OurRates[1].DetailName)
	assert.True(t, b.OurRates[1].WeBuy.Equal(dec("1940.00")))
	assert.True(t, b.OurRates[1].WeSell.Equal(dec("1943.80")))

	require.Len(t, b.CustomerSell, 1)
	assert.Equal(t, "916 MYR / Gram", b.CustomerSell[0].DetailName)
	assert.Nil(t, b.CustomerSell[0].WeSell)
}

func TestExtractTTTBullionSkipsSilverAndHeader(t *testing.T) {
	page := `<table><tr><th>Silver</th><th>Buy</th><th>Sell</th></tr>
<tr><td>Silver 1kg</td><td>4,000</td><td>4,100</td></tr></table>
<table><tr><th>Gold</th><th>We Buy</th><th>We Sell</th></tr>
<tr><td>Gold 1oz</td><td>2,300.10</td><td>2,350.90</td></tr>
<tr><td>Gold 1g</td><td>74.00</td><td>-</td></tr>
<tr><td>Gold bar</td><td>1.0</td></tr>
</table>`
	v, _ := For(domain.SiteTTTBullion)
	b, serr := Extract(doc(t, page), v, nil)
	require.Nil(t, serr)
	require.Len(t, b.OurRates, 2)
	assert.Equal(t, "Gold 1oz", b.OurRates[0].DetailName)
	assert.True(t, b.OurRates[0].WeBuy.Equal(dec("2300.10")))
	assert.Equal(t, "Gold 1g", b.OurRates[1].DetailName)
	assert.Nil(t, b.OurRates[1].WeSell)
	assert.Empty(t, b.CustomerSell)
}

func TestExtractStopsAtFirstProducingTable(t *testing.T) {
	page := `<table><tr><td>h</td></tr><tr><td>Gold A</td><td>1</td><td>2</td></tr></table>
<table><tr><td>h</td></tr><tr><td>Gold B</td><td>3</td><td>4</td></tr></table>`
	v, _ := For(domain.SiteTTTBullion)
	b, serr := Extract(doc(t, page), v, nil)
	require.Nil(t, serr)
	require.Len(t, b.OurRates, 1)
	assert.Equal(t, "Gold A", b.OurRates[0].DetailName)
}

func TestExtractHeaderOnlyTable(t *testing.T) {
	v, _ := For(domain.SiteTTTBullion)
	b, serr := Extract(doc(t, `<table><tr><th>Gold</th><th>Buy</th><th>Sell</th></tr></table>`), v, nil)
	require.NotNil(t, serr)
	assert.Equal(t, scrapeerr.DataStructure, serr.Type)
	assert.True(t, b.Empty())

	v, _ = For(domain.SiteMSGold)
	_, serr = Extract(doc(t, `<table><tr><td>DETAILS</td><td>WE BUY</td><td>WE SELL</td></tr></table>`), v, nil)
	require.NotNil(t, serr)
	assert.Equal(t, scrapeerr.DataStructure, serr.Type)
}

func TestExtractNoTables(t *testing.T) {
	v, _ := For(domain.SiteMSGold)
	_, serr := Extract(doc(t, `<p>maintenance</p>`), v, nil)
	require.NotNil(t, serr)
	assert.Equal(t, scrapeerr.TableNotFound, serr.Type)
}

func TestExtractNoMatchingTable(t *testing.T) {
	v, _ := For(domain.SiteTTTBullion)
	_, serr := Extract(doc(t, `<table><tr><td>Silver</td><td>1</td><td>2</td></tr></table>`), v, nil)
	require.NotNil(t, serr)
	assert.Equal(t, scrapeerr.TableNotFound, serr.Type)
	assert.EqualValues(t, 1, serr.Details["tableCount"])
}

func TestExtractRowsWithoutValues(t *testing.T) {
	page := `<table><tr><td>Gold</td><td>Buy</td><td>Sell</td></tr>
<tr><td>Gold 1oz</td><td>call</td><td>call</td></tr></table>`
	v, _ := For(domain.SiteTTTBullion)
	b, serr := Extract(doc(t, page), v, nil)
	require.NotNil(t, serr)
	assert.Equal(t, scrapeerr.Extraction, serr.Type)
	assert.True(t, b.Empty())
}

func TestExtractHTMLUnknownSite(t *testing.T) {
	_, serr := ExtractHTML(strings.NewReader("<table></table>"), domain.Site("kitco"), nil)
	require.NotNil(t, serr)
	assert.Equal(t, scrapeerr.Unknown, serr.Type)
}
