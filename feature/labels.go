package feature

import (
	"context"

	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/pipeline"
)

// 记录中的字段名
const (
	FieldYear         = "year"
	FieldKmDriven     = "km_driven"
	FieldMileage      = "mileage"
	FieldEngine       = "engine"
	FieldMaxPower     = "max_power"
	FieldTorque       = "torque"
	FieldMaxTorqueRPM = "max_torque_rpm"
	FieldSeats        = "seats"
	FieldName         = "name"
	FieldFuel         = "fuel"
	FieldTransmission = "transmission"
	FieldSellerType   = "seller_type"
	FieldOwner        = "owner"
)

// LabelPair 是一条展示层标签到训练时标签的映射。
type LabelPair struct {
	Display string `json:"display"`
	Trained string `json:"trained"`
}

// LabelTable 是一个字段的固定翻译表，顺序即展示顺序。
type LabelTable struct {
	Field string      `json:"field"`
	Pairs []LabelPair `json:"pairs"`
}

// Translate 查表；不存在返回 false。
func (t LabelTable) Translate(display string) (string, bool) {
	for _, p := range t.Pairs {
		if p.Display == display {
			return p.Trained, true
		}
	}
	return "", false
}

// Labels 返回展示层可选项（按展示顺序）。
func (t LabelTable) Labels() []string {
	out := make([]string, len(t.Pairs))
	for i, p := range t.Pairs {
		out[i] = p.Display
	}
	return out
}

// 俄语展示层的固定翻译表
var (
	FuelLabels = LabelTable{Field: FieldFuel, Pairs: []LabelPair{
		{"Дизель", "Diesel"},
		{"Бензин", "Petrol"},
		{"Газ (СУГ)", "LPG"},
		{"Газ (КПГ)", "CNG"},
	}}

	TransmissionLabels = LabelTable{Field: FieldTransmission, Pairs: []LabelPair{
		{"Механическая", "Manual"},
		{"Автоматическая", "Automatic"},
	}}

	SellerTypeLabels = LabelTable{Field: FieldSellerType, Pairs: []LabelPair{
		{"Частное лицо", "Individual"},
		{"Дилер", "Dealer"},
		{"Официальный дилер", "Trustmark Dealer"},
	}}

	OwnerLabels = LabelTable{Field: FieldOwner, Pairs: []LabelPair{
		{"Первый", "First Owner"},
		{"Второй", "Second Owner"},
		{"Третий", "Third Owner"},
		{"Четвертый и более", "Fourth & Above Owner"},
		{"Тест-драйв", "Test Drive Car"},
	}}
)

// Translator 把展示层标签翻译为训练时标签。
// 只处理登记了翻译表的字段；其余字段原样保留。
type Translator struct {
	tables []LabelTable
}

// NewTranslator 使用给定翻译表创建 Translator。
func NewTranslator(tables ...LabelTable) *Translator {
	return &Translator{tables: tables}
}

// DefaultTranslator 返回覆盖 fuel/transmission/seller_type/owner 四个字段的俄语翻译器。
func DefaultTranslator() *Translator {
	return NewTranslator(FuelLabels, TransmissionLabels, SellerTypeLabels, OwnerLabels)
}

// Tables 返回登记的翻译表。
func (t *Translator) Tables() []LabelTable {
	return t.tables
}

// TranslateValue 翻译单个字段的取值；字段无翻译表时原样返回。
func (t *Translator) TranslateValue(field, value string) (string, error) {
	for _, table := range t.tables {
		if table.Field != field {
			continue
		}
		trained, ok := table.Translate(value)
		if !ok {
			return "", core.NewUnknownCategoryLabelError(field, value)
		}
		return trained, nil
	}
	return value, nil
}

// Translate 返回翻译后的记录拷贝，原记录不变。
// 记录中不存在的字段跳过，由后续编码器报告 MISSING_FEATURE。
func (t *Translator) Translate(record core.Record) (core.Record, error) {
	out := record.Clone()
	if err := t.translateInPlace(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Translator) translateInPlace(record core.Record) error {
	for _, table := range t.tables {
		if _, ok := record[table.Field]; !ok {
			continue
		}
		display, err := record.Category(table.Field)
		if err != nil {
			return err
		}
		trained, err := t.TranslateValue(table.Field, display)
		if err != nil {
			return err
		}
		record[table.Field] = trained
	}
	return nil
}

func (t *Translator) Name() string        { return "feature.translate" }
func (t *Translator) Kind() pipeline.Kind { return pipeline.KindTranslate }

// Process 在 Sample 的记录拷贝上就地翻译。
func (t *Translator) Process(_ context.Context, s *core.Sample) error {
	return t.translateInPlace(s.Record)
}
