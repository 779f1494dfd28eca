package metrics

import "github.com/prometheus/client_golang/prometheus"

// ShopMetrics counts storefront business events.
type ShopMetrics struct {
	ordersCreated   prometheus.Counter
	checkoutBlocked *prometheus.CounterVec
	cartMutations   *prometheus.CounterVec
	reviewsCreated  prometheus.Counter
}

// NewShopMetrics registers the business counters on the provided registerer.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	m := &ShopMetrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders successfully placed.",
		}),
		checkoutBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_blocked_total",
			Help:      "Checkout attempts rejected before an order was written.",
		}, []string{"reason"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart writes by operation.",
		}, []string{"op"}),
		reviewsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_created_total",
			Help:      "Product reviews created.",
		}),
	}
	reg.MustRegister(m.ordersCreated, m.checkoutBlocked, m.cartMutations, m.reviewsCreated)
	return m
}

func (m *ShopMetrics) OrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *ShopMetrics) CheckoutBlocked(reason string) {
	if m == nil || m.checkoutBlocked == nil {
		return
	}
	m.checkoutBlocked.WithLabelValues(reason).Inc()
}

func (m *ShopMetrics) CartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

func (m *ShopMetrics) ReviewCreated() {
	if m == nil || m.reviewsCreated == nil {
		return
	}
	m.reviewsCreated.Inc()
}
