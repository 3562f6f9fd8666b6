// Package manifest はクラスマニフェスト（"<class>/<sample_id>" 形式の行）からクラスカタログを読み込みます。
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
)

var (
	// ErrManifestNotFound はマニフェストファイルが存在しない場合に返されます。
	ErrManifestNotFound = fmt.Errorf("%w: class manifest not found", usecase.ErrConfiguration)
	// ErrEmptyCatalog はマニフェストからクラスが1件も得られなかった場合に返されます。
	ErrEmptyCatalog = fmt.Errorf("%w: no classes found in class manifest", usecase.ErrConfiguration)
)

// LoadClassCatalog はマニフェストファイルを読み込み、クラスカタログを返します。
func LoadClassCatalog(path string) (entity.ClassCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("%w: open class manifest: %v", usecase.ErrConfiguration, err)
	}
	defer func() { _ = f.Close() }()

	return ParseClassCatalog(f)
}

// ParseClassCatalog は各行の最初の "/" より前をクラス名として集め、
// 重複を除いてアルファベット順に並べます。
// この順序はモデル学習時のラベル→インデックスの対応と一致している必要があります。
func ParseClassCatalog(r io.Reader) (entity.ClassCatalog, error) {
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// apple_pie/1005649 -> apple_pie
		name, _, _ := strings.Cut(line, "/")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		seen[name] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read class manifest: %v", usecase.ErrConfiguration, err)
	}
	if len(seen) == 0 {
		return nil, ErrEmptyCatalog
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	catalog := make(entity.ClassCatalog, 0, len(names))
	for _, n := range names {
		catalog = append(catalog, entity.ClassLabel(n))
	}
	return catalog, nil
}
