package domain

// BestSellerLimit is the number of products listed on the dashboard.
const BestSellerLimit = 5

// DashboardStats summarises orders for the admin landing page.
type DashboardStats struct {
	TotalOrders         int          `json:"totalOrders"`
	PendingOrders       int          `json:"pendingOrders"`
	ProcessingOrders    int          `json:"processingOrders"`
	DeliveredOrders     int          `json:"deliveredOrders"`
	CancelledOrders     int          `json:"cancelledOrders"`
	BestSellingProducts []BestSeller `json:"bestSellingProducts"`
}

// BestSeller is a product ranked by units sold.
type BestSeller struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
	Image    string `json:"image"`
}

// ApplyStatusCounts fills the per-status counters from a status→count map.
func (d *DashboardStats) ApplyStatusCounts(counts map[string]int) {
	d.TotalOrders = 0
	for _, n := range counts {
		d.TotalOrders += n
	}
	d.PendingOrders = counts[OrderStatusPending]
	d.ProcessingOrders = counts[OrderStatusProcessing]
	d.DeliveredOrders = counts[OrderStatusDelivered]
	d.CancelledOrders = counts[OrderStatusCancelled]
}
