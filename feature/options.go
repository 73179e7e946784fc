package feature

import "sort"

// Brands 是展示层可选的品牌（取自训练数据中 name 字段的首个单词）。
var Brands = []string{
	"Maruti", "Skoda", "Hyundai", "Toyota", "Ford", "Renault", "Mahindra",
	"Honda", "Chevrolet", "Fiat", "Datsun", "Tata", "Jeep", "Mercedes-Benz",
	"Mitsubishi", "Audi", "Volkswagen", "BMW", "Nissan", "Lexus", "Jaguar",
	"Land", "MG", "Volvo", "Daewoo", "Kia", "Force", "Ambassador", "Isuzu",
	"Peugeot",
}

// Seats 是展示层可选的座位数。
var Seats = []int{2, 4, 5, 6, 7, 8, 9, 10, 14}

// Options 是展示层表单的可选项与默认值。
type Options struct {
	Brands       []string       `json:"brands"`
	Fuel         []string       `json:"fuel"`
	Transmission []string       `json:"transmission"`
	SellerType   []string       `json:"seller_type"`
	Owner        []string       `json:"owner"`
	Seats        []int          `json:"seats"`
	Defaults     map[string]any `json:"defaults"`
}

// DefaultOptions 返回俄语展示层的可选项；品牌按字母排序，标签保持表内顺序。
func DefaultOptions() Options {
	brands := append([]string(nil), Brands...)
	sort.Strings(brands)

	return Options{
		Brands:       brands,
		Fuel:         FuelLabels.Labels(),
		Transmission: TransmissionLabels.Labels(),
		SellerType:   SellerTypeLabels.Labels(),
		Owner:        OwnerLabels.Labels(),
		Seats:        append([]int(nil), Seats...),
		Defaults:     DefaultRecord(),
	}
}

// DefaultRecord 返回表单初始值组成的记录，可直接用于估价。
func DefaultRecord() map[string]any {
	return map[string]any{
		FieldYear:         2018,
		FieldKmDriven:     50000,
		FieldMileage:      20.0,
		FieldEngine:       1200,
		FieldMaxPower:     80.0,
		FieldTorque:       160.0,
		FieldMaxTorqueRPM: 3000,
		FieldSeats:        2,
		FieldName:         "Ambassador",
		FieldFuel:         FuelLabels.Pairs[0].Display,
		FieldTransmission: TransmissionLabels.Pairs[0].Display,
		FieldSellerType:   SellerTypeLabels.Pairs[0].Display,
		FieldOwner:        OwnerLabels.Pairs[0].Display,
	}
}
