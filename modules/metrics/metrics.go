package metrics

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack"
)

const (
	AccessRetry = 3

	BackupOk     = "backup_ok"
	BackupTime   = "backup_time"
	CompressOk   = "compress_ok"
	CompressTime = "compress_time"
	BackupSize   = "size"
	DeliveryOk   = "delivery_ok"
	DeliveryTime = "delivery_time"
)

type Data struct {
	Project string
	Server  string
	Enabled bool

	Device map[string]DeviceData

	metricsFile string
}

type DeviceData struct {
	DeviceName string
	Values     map[string]float64
}

type DataOpts struct {
	Project     string
	Server      string
	MetricsFile string
	Enabled     bool
}

func InitData(opts DataOpts) *Data {
	return &Data{
		Project:     opts.Project,
		Server:      opts.Server,
		Enabled:     opts.Enabled,
		Device:      make(map[string]DeviceData),
		metricsFile: opts.MetricsFile,
	}
}

func (md *Data) MetricFilePath() string {
	return md.metricsFile
}

// AddDeviceMetrics merges values into the device's run metrics.
func (md *Data) AddDeviceMetrics(deviceName string, values map[string]float64) {
	dd, ok := md.Device[deviceName]
	if !ok {
		dd = DeviceData{
			DeviceName: deviceName,
			Values:     make(map[string]float64),
		}
	}
	for k, v := range values {
		dd.Values[k] = v
	}
	md.Device[deviceName] = dd
}

func (md *Data) SaveFile() error {
	if !md.Enabled {
		return nil
	}

	f, err := os.OpenFile(md.metricsFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := msgpack.NewEncoder(f)
	return enc.Encode(md)
}

func readFile(path string) (*Data, error) {
	var (
		f   *os.File
		d   Data
		err error
	)

	retry := AccessRetry
	for retry > 0 {
		f, err = os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0600)
		if err != nil {
			time.Sleep(1 * time.Second)
			retry--
		} else {
			break
		}
	}
	if err != nil {
		return &d, err
	}
	defer func() { _ = f.Close() }()

	dec := msgpack.NewDecoder(f)
	err = dec.Decode(&d)
	if errors.Is(err, io.EOF) {
		err = nil
		d.Device = make(map[string]DeviceData)
	}
	return &d, err
}
