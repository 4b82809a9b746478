// Package internaldefs holds the metric names, help strings and histogram
// bounds shared by the Prometheus and OTel exporters, so both expose the same
// series for the same engine counters.
package internaldefs
