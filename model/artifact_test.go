package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/carprice/core"
)

const artifactJSON = `{
  "numerical_features": ["year", "km_driven"],
  "scaler_mean": [2015, 60000],
  "scaler_std": [5, 20000],
  "categorical_features": ["fuel", "seats"],
  "encoder_categories": [["Diesel", "LPG", "Petrol"], [2, 4, 5.0]],
  "final_feature_order": ["year", "km_driven", "fuel_LPG", "fuel_Petrol", "seats_4", "seats_5"],
  "ridge_coefficients": [10, -2, 1, 3, 0.5, 0.25],
  "ridge_intercept": 100,
  "model_version": "2024-ridge-1"
}`

const artifactYAML = `
numerical_features: [year]
scaler_mean: [2015]
scaler_std: [5]
categorical_features: [fuel, seats]
encoder_categories:
  - [Diesel, Petrol]
  - [2, 4.0, 5]
ridge_coefficients: [10, 3, 1, 2]
ridge_intercept: 100
`

func TestDecodeArtifact_JSON(t *testing.T) {
	a, err := DecodeArtifact([]byte(artifactJSON), FormatJSON)
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	require.Equal(t, Vocabulary{"2", "4", "5"}, a.EncoderCategories[1])
	require.Equal(t, 6, a.FeatureVectorLen())
	require.Equal(t, "2024-ridge-1", a.Version())
	require.Equal(t, a.FinalFeatureOrder, a.FeatureNames())
}

func TestDecodeArtifact_YAML(t *testing.T) {
	a, err := DecodeArtifact([]byte(artifactYAML), "")
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	require.Equal(t, Vocabulary{"Diesel", "Petrol"}, a.EncoderCategories[0])
	require.Equal(t, Vocabulary{"2", "4", "5"}, a.EncoderCategories[1])
	require.Equal(t, "unversioned", a.Version())
	require.Equal(t, []string{"year", "fuel_Petrol", "seats_4", "seats_5"}, a.FeatureNames())
}

func TestArtifact_EncodeRoundTripKeepsOrder(t *testing.T) {
	a, err := DecodeArtifact([]byte(artifactJSON), FormatJSON)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := a.Encode(format)
		require.NoError(t, err)
		back, err := DecodeArtifact(data, format)
		require.NoError(t, err)
		require.Equal(t, a, back)
	}
}

func TestArtifact_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
		field  string
	}{
		{"zero std", func(a *Artifact) { a.ScalerStd[1] = 0 }, "scaler_std"},
		{"short mean", func(a *Artifact) { a.ScalerMean = a.ScalerMean[:1] }, "scaler_mean"},
		{"missing vocabulary", func(a *Artifact) { a.EncoderCategories = a.EncoderCategories[:1] }, "encoder_categories"},
		{"empty vocabulary", func(a *Artifact) { a.EncoderCategories[0] = Vocabulary{} }, "encoder_categories"},
		{"duplicate category", func(a *Artifact) { a.EncoderCategories[0] = Vocabulary{"Diesel", "Diesel", "Petrol"} }, "encoder_categories"},
		{"duplicate feature", func(a *Artifact) { a.CategoricalFeatures[1] = "year" }, "features"},
		{"coefficient skew", func(a *Artifact) { a.RidgeCoefficients = append(a.RidgeCoefficients, 1) }, "ridge_coefficients"},
		{"feature order skew", func(a *Artifact) { a.FinalFeatureOrder = a.FinalFeatureOrder[:2] }, "final_feature_order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := DecodeArtifact([]byte(artifactJSON), FormatJSON)
			require.NoError(t, err)
			tt.mutate(a)

			err = a.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, core.ErrInvalidArtifact))
			require.Equal(t, tt.field, core.GetDomainError(err).Field)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	require.Equal(t, FormatYAML, FormatFromPath("model.YML"))
	require.Equal(t, FormatYAML, FormatFromPath("/a/b/model.yaml"))
	require.Equal(t, FormatJSON, FormatFromPath("model.json"))
	require.Equal(t, FormatJSON, FormatFromPath("model"))
}
