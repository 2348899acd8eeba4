package models

type FunnelRow struct {
	StageID    string  `json:"stage_id"`
	Count      int64   `json:"count"`
	TotalValue float64 `json:"total_value"`
}

type WinRate struct {
	Won     int64   `json:"won"`
	Total   int64   `json:"total"`
	WinRate float64 `json:"win_rate"`
}

type ForecastRow struct {
	Month         string  `json:"month"`
	ForecastValue float64 `json:"forecast_value"`
}

type ActivityCount struct {
	OwnerID string `json:"owner_id"`
	Count   int64  `json:"count"`
}

type SearchResult struct {
	Deals         []Deal         `json:"deals"`
	Contacts      []Contact      `json:"contacts"`
	Organizations []Organization `json:"organizations"`
}
