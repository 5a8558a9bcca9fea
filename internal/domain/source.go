package domain

// Source identifies the adapter a raw calendar row came from.
type Source string

const (
	SourceCSV              Source = "csv"
	SourceFFHTML           Source = "ff_html"
	SourceFFJSON           Source = "ff_json"
	SourceTradingEconomics Source = "tradingeconomics"
	SourceFixture          Source = "fixture"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a known adapter.
func (s Source) IsValid() bool {
	switch s {
	case SourceCSV, SourceFFHTML, SourceFFJSON, SourceTradingEconomics, SourceFixture:
		return true
	}
	return false
}
