package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type Exporter struct {
	metrics        map[string]*prometheus.Desc
	log            *logrus.Logger
	metricFilePath string
}

type ExporterOpts struct {
	Log            *logrus.Logger
	MetricFilePath string
}

func InitExporter(s ExporterOpts) *Exporter {

	deviceLabels := []string{"project", "server", "device"}

	metrics := map[string]*prometheus.Desc{
		BackupSize: prometheus.NewDesc(
			prometheus.BuildFQName("sd_backup", "artifact", "size"),
			"Compressed backup artifact size",
			deviceLabels, nil,
		),
		BackupOk: prometheus.NewDesc(
			prometheus.BuildFQName("sd_backup", "copy", "success"),
			"Device copy stage finished successfully",
			deviceLabels, nil,
		),
		BackupTime: prometheus.NewDesc(
			prometheus.BuildFQName("sd_backup", "copy", "time"),
			"Device copy stage duration",
			deviceLabels, nil,
		),
		CompressOk: prometheus.NewDesc(
			prometheus.BuildFQName("sd_backup", "compress", "success"),
			"Compression stage finished successfully",
			deviceLabels, nil,
		),
		CompressTime: prometheus.NewDesc(
			prometheus.BuildFQName("sd_backup", "compress", "time"),
			"Compression stage duration",
			deviceLabels, nil,
		),
		DeliveryOk: prometheus.NewDesc(
			prometheus.BuildFQName("sd_backup", "delivery", "success"),
			"Artifact delivery finished successfully",
			deviceLabels, nil,
		),
		DeliveryTime: prometheus.NewDesc(
			prometheus.BuildFQName("sd_backup", "delivery", "time"),
			"Artifact delivering time",
			deviceLabels, nil,
		),
	}

	return &Exporter{
		metrics:        metrics,
		log:            s.Log,
		metricFilePath: s.MetricFilePath,
	}
}

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range e.metrics {
		ch <- m
	}
}

// Collect is called by the prometheus client on every scrape of the
// /metrics page and reads the run metrics saved by the last backup.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {

	data, err := readFile(e.metricFilePath)
	if err != nil {
		e.log.Warnf("Failed to read metric file: %v", err)
		return
	}

	for _, dev := range data.Device {
		for k, v := range dev.Values {
			desc, ok := e.metrics[k]
			if !ok {
				continue
			}
			d, err := prometheus.NewConstMetric(
				desc,
				prometheus.GaugeValue,
				v,
				data.Project,
				data.Server,
				dev.DeviceName,
			)
			if err != nil {
				e.log.Warnf("Failed to export prometheus metric: %v", err)
				continue
			}
			ch <- d
		}
	}
}
