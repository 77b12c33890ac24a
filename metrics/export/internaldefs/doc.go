// Package internaldefs holds the metric names, help strings and histogram
// bounds shared by the console exporters, so the Prometheus and OTel
// renditions of a counter always carry the same name.
package internaldefs
