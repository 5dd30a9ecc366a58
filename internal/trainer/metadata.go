package trainer

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ChizhovVadim/churnann/internal/config"
	"github.com/ChizhovVadim/churnann/internal/dataset"
	"github.com/ChizhovVadim/churnann/internal/domain"
	"github.com/ChizhovVadim/churnann/internal/search"
	"github.com/ChizhovVadim/churnann/internal/train"
	"github.com/pkg/errors"
)

// Metadata is written next to the network file. The scaler holds the
// training partition statistics needed to transform new rows.
type Metadata struct {
	RunID        string                   `json:"run_id"`
	CreatedAt    time.Time                `json:"created_at"`
	ModelFile    string                   `json:"model_file"`
	BestParams   domain.Params            `json:"best_params"`
	Folds        int                      `json:"cv_folds"`
	CVMeanScore  float64                  `json:"cv_mean_score"`
	CVStdScore   float64                  `json:"cv_std_score"`
	Test         train.Evaluation         `json:"test"`
	Grid         []search.CandidateResult `json:"grid"`
	FeatureNames []string                 `json:"feature_names"`
	TargetName   string                   `json:"target_name"`
	Classes      []string                 `json:"label_classes"`
	Scaler       *dataset.StandardScaler  `json:"scaler"`
}

func NewMetadata(
	runID string,
	cfg *config.Config,
	prepared *dataset.Prepared,
	result *search.Result[*train.Classifier],
	evaluation train.Evaluation,
) *Metadata {
	var best = result.Candidates[result.BestIndex]
	return &Metadata{
		RunID:        runID,
		CreatedAt:    time.Now().UTC(),
		ModelFile:    config.ModelFile,
		BestParams:   result.BestParams,
		Folds:        cfg.Folds,
		CVMeanScore:  best.MeanScore,
		CVStdScore:   best.StdScore,
		Test:         evaluation,
		Grid:         result.Candidates,
		FeatureNames: prepared.FeatureNames,
		TargetName:   prepared.TargetName,
		Classes:      prepared.Encoder.Classes,
		Scaler:       prepared.TrainScaler,
	}
}

func (m *Metadata) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode metadata")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "write metadata")
	}
	return nil
}

func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read metadata")
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parse metadata")
	}
	return &m, nil
}
