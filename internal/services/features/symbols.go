package features

// SymbolBinding maps a model feature to the provider ticker that feeds it.
// An empty Symbol marks the feature as unset: it is never fetched.
type SymbolBinding struct {
	Feature string
	Symbol  string
}

// SymbolMap is the ordered feature-to-ticker mapping used by the forecast pipeline.
type SymbolMap []SymbolBinding

// DefaultSymbolMap maps each raw schema column to a freely available proxy ticker.
func DefaultSymbolMap() SymbolMap {
	return SymbolMap{
		{Feature: "XAU BGNL", Symbol: "GC=F"},
		{Feature: "BDIY", Symbol: "^BDI"},
		{Feature: "CRY", Symbol: "^CRB"},
		{Feature: "DXY", Symbol: "DX-Y.NYB"},
		{Feature: "JPY", Symbol: "JPY=X"},
		{Feature: "GBP", Symbol: "GBPUSD=X"},
		{Feature: "Cl1", Symbol: "CL=F"},
		{Feature: "VIX", Symbol: "^VIX"},
		{Feature: "USGG30YR", Symbol: "^TYX"},
		{Feature: "USGG2YR", Symbol: "^IRX"},
		{Feature: "MXEU", Symbol: "EZU"},
		{Feature: "MXJP", Symbol: "EWJ"},
		{Feature: "MXBR", Symbol: "EWZ"},
	}
}

// Features returns the feature names in map order.
func (m SymbolMap) Features() []string {
	out := make([]string, len(m))
	for i, b := range m {
		out[i] = b.Feature
	}
	return out
}
