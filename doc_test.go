package carprice

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFacade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
numerical_features: [year]
scaler_mean: [2019]
scaler_std: [1]
categorical_features: [fuel]
encoder_categories: [[Diesel, Petrol]]
ridge_coefficients: [10, 3]
ridge_intercept: 100
`), 0o644))

	a, err := LoadArtifact(path)
	require.NoError(t, err)

	price, err := Predict(context.Background(), a, Record{"year": 2020, "fuel": "Бензин"})
	require.NoError(t, err)
	require.Equal(t, 113.0, price)
}
