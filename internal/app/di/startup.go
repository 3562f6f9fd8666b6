package di

import (
	"go.uber.org/zap"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/shared/foodname"
)

// CrossCheck compares the catalog with the nutrition names and the model output width.
// Mismatches are logged, never fatal: unknown nutrition renders as N/A and the
// predictor rejects out-of-range indexes per request.
// It returns the catalog labels that have no nutrition row.
func CrossCheck(catalog entity.ClassCatalog, nutritionNames []string, outputWidth int, log *zap.Logger) []string {
	known := make(map[string]struct{}, len(nutritionNames))
	for _, n := range nutritionNames {
		known[foodname.Canonicalize(n)] = struct{}{}
	}

	var missing []string
	for _, l := range catalog {
		key := foodname.Canonicalize(string(l))
		if _, ok := known[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		log.Warn("catalog labels without nutrition rows",
			zap.Int("count", len(missing)),
			zap.Strings("labels", missing))
	}

	if outputWidth > 0 && outputWidth != catalog.Len() {
		log.Warn("model output width differs from catalog size",
			zap.Int("output_width", outputWidth),
			zap.Int("catalog_size", catalog.Len()))
	}
	return missing
}
