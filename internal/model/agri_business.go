package model

type AgriBusinessRecord struct {
	ID            int64   `json:"id,omitempty"`
	FPOID         int64   `json:"fpo_id"`
	FPOName       string  `json:"fpo_name,omitempty"`
	FinancialYear string  `json:"financial_year"`
	Commodity     string  `json:"commodity"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	Turnover      float64 `json:"turnover"`
}

type AnnualStat struct {
	FinancialYear string  `json:"financial_year"`
	TotalTurnover float64 `json:"total_turnover"`
	TotalQuantity float64 `json:"total_quantity"`
	RecordCount   int     `json:"record_count"`
}
