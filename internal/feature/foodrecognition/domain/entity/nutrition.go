package entity

import "strconv"

// UnknownValue は栄養値が不明な場合の表示値です。
const UnknownValue = "N/A"

// Nutrient は数値または不明のいずれかを取る栄養値です。
type Nutrient struct {
	Value float64
	Known bool
}

// KnownNutrient は値が既知のNutrientを生成します。
func KnownNutrient(v float64) Nutrient {
	return Nutrient{Value: v, Known: true}
}

// UnknownNutrient は不明なNutrientを返します。
func UnknownNutrient() Nutrient {
	return Nutrient{}
}

// String は表示用の文字列を返します。不明な場合は "N/A" です。
func (n Nutrient) String() string {
	if !n.Known {
		return UnknownValue
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// Float は既知の値へのポインタを返します。不明な場合はnilです（JSONのnull用）。
func (n Nutrient) Float() *float64 {
	if !n.Known {
		return nil
	}
	v := n.Value
	return &v
}

// NutritionRecord は1食品あたりの栄養情報を表します。
type NutritionRecord struct {
	CanonicalName string   // 正規化済みの食品名（結合キー）
	Calories      Nutrient // カロリー
	Protein       Nutrient // たんぱく質
	Fat           Nutrient // 脂質
	Carbohydrates Nutrient // 炭水化物
}

// UnknownNutrition はすべての栄養値が不明なレコードを返します。
func UnknownNutrition(canonicalName string) NutritionRecord {
	return NutritionRecord{
		CanonicalName: canonicalName,
		Calories:      UnknownNutrient(),
		Protein:       UnknownNutrient(),
		Fat:           UnknownNutrient(),
		Carbohydrates: UnknownNutrient(),
	}
}
