package dtos

// NetworkDTO is one entry of the networks list (§6 GET /purchase/networks/{airtime|data}).
type NetworkDTO struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DataPlanDTO is one entry of the data plans list (§6 GET /purchase/data-plans/{network}).
type DataPlanDTO struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
}
