package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"market-replay-go/order"
)

// ErrMalformedRow 数据行字段数量或取值不合法。
var ErrMalformedRow = errors.New("malformed row")

// IngestStats 加载统计。
type IngestStats struct {
	Rows      int
	Accepted  int
	Malformed int
	// FirstErrors 保留前若干条错误便于排查
	FirstErrors []error
}

const maxKeptErrors = 10

// LoadCSV 从文件加载数据集，见 ReadCSV。
func LoadCSV(path string) (*Dataset, IngestStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, IngestStats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV 读取 "timestamp,product,side,price,amount" 格式的行，无表头。
// 不合法的行被跳过并计数，只有底层读取错误才返回 error。
func ReadCSV(r io.Reader) (*Dataset, IngestStats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	ds := NewDataset()
	var st IngestStats
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				st.Rows++
				st.malformed(fmt.Errorf("%w: %v", ErrMalformedRow, err))
				continue
			}
			return nil, st, fmt.Errorf("read dataset: %w", err)
		}
		st.Rows++
		o, err := ParseRow(rec)
		if err != nil {
			st.malformed(fmt.Errorf("row %d: %w", st.Rows, err))
			continue
		}
		ds.Add(o)
		st.Accepted++
	}
	return ds, st, nil
}

// ParseRow 把一行转换为数据集订单。价格与数量先按十进制精确解析，
// 拒绝非数字、非正价格与负数量，再转为 float64。
func ParseRow(rec []string) (order.Order, error) {
	if len(rec) != 5 {
		return order.Order{}, fmt.Errorf("%w: want 5 fields, got %d", ErrMalformedRow, len(rec))
	}
	ts := strings.TrimSpace(rec[0])
	if ts == "" {
		return order.Order{}, fmt.Errorf("%w: empty timestamp", ErrMalformedRow)
	}
	prod, err := order.ParseProduct(rec[1])
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	side, err := order.ParseSide(rec[2])
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: price %q", ErrMalformedRow, rec[3])
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rec[4]))
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: amount %q", ErrMalformedRow, rec[4])
	}
	if !price.IsPositive() {
		return order.Order{}, fmt.Errorf("%w: non-positive price %s", ErrMalformedRow, price)
	}
	if amount.IsNegative() {
		return order.Order{}, fmt.Errorf("%w: negative amount %s", ErrMalformedRow, amount)
	}
	return order.Order{
		Product:   prod,
		Side:      side,
		Price:     price.InexactFloat64(),
		Quantity:  amount.InexactFloat64(),
		Timestamp: ts,
		Owner:     order.DatasetOwner,
		Status:    order.StatusLive,
	}, nil
}

func (st *IngestStats) malformed(err error) {
	st.Malformed++
	if len(st.FirstErrors) < maxKeptErrors {
		st.FirstErrors = append(st.FirstErrors, err)
	}
}
