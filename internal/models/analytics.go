package models

type AnalyticsSummary struct {
	TodaySpins         int64 `json:"today_spins"`
	ActiveDays         int64 `json:"active_days"`
	UniqueCustomers30d int64 `json:"unique_customers_30d"`
}

type DailySpins struct {
	Date  string `json:"date"`
	Spins int64  `json:"spins"`
}

type DashboardKPI struct {
	TodaySpins        int64            `json:"today_spins"`
	FacilityRateToday float64          `json:"facility_rate_today"`
	PrizeBreakdown    map[string]int64 `json:"prize_breakdown"`
	Daily             []DailySpins     `json:"daily"`
}
