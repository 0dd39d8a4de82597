package library

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports catalog lending counts to Prometheus at scrape time.
type Collector struct {
	catalog *Catalog
	books   *prometheus.Desc
}

func NewCollector(catalog *Catalog) *Collector {
	return &Collector{
		catalog: catalog,
		books: prometheus.NewDesc(
			"library_books",
			"Number of catalogued books by lending status.",
			[]string{"status"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.books
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.catalog.Stats()
	ch <- prometheus.MustNewConstMetric(c.books, prometheus.GaugeValue, float64(s.Available), "available")
	ch <- prometheus.MustNewConstMetric(c.books, prometheus.GaugeValue, float64(s.Borrowed), "borrowed")
}
