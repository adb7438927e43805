package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/epochtools/actinorm"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeriesCSV(path string, series *actinorm.EpochSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ts", "value", "missing"}); err != nil {
		return err
	}
	for _, rec := range series.Records {
		value := ""
		if !rec.Missing {
			value = strconv.FormatFloat(rec.Value, 'g', -1, 64)
		}
		row := []string{
			rec.Timestamp.Format(time.RFC3339),
			value,
			strconv.FormatBool(rec.Missing),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type epochParquetRow struct {
	TS      string  `parquet:"name=ts, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Slot    int64   `parquet:"name=slot, type=INT64"`
	Value   float64 `parquet:"name=value, type=DOUBLE"`
	Missing bool    `parquet:"name=missing, type=BOOLEAN"`
}

func writeSeriesParquet(path string, series *actinorm.EpochSeries) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(epochParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for slot, rec := range series.Records {
		value := rec.Value
		if rec.Missing {
			value = math.NaN()
		}
		row := epochParquetRow{
			TS:      rec.Timestamp.Format(time.RFC3339),
			Slot:    int64(slot),
			Value:   value,
			Missing: rec.Missing,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
