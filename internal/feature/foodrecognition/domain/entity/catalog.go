// Package entity はfoodrecognitionフィーチャーのドメインモデルを定義します。
package entity

// ClassLabel は食品カテゴリを識別するラベルです（例: "apple_pie"）。
type ClassLabel string

// ClassCatalog はモデルの出力インデックスに対応する、アルファベット順に並んだクラスラベル一覧です。
// 起動時に一度だけ生成され、以降は変更されません。
type ClassCatalog []ClassLabel

// Len はカタログに含まれるクラス数を返します。
func (c ClassCatalog) Len() int {
	return len(c)
}

// Label は指定インデックスのラベルを返します。範囲外の場合はfalseを返します。
func (c ClassCatalog) Label(index int) (ClassLabel, bool) {
	if index < 0 || index >= len(c) {
		return "", false
	}
	return c[index], true
}

// Strings はラベルを文字列スライスとして返します。
func (c ClassCatalog) Strings() []string {
	out := make([]string, 0, len(c))
	for _, l := range c {
		out = append(out, string(l))
	}
	return out
}
