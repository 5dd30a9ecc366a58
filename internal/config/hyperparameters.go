package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ApplyHyperparameters merges a SageMaker hyperparameters.json file. The
// service passes every value as a string, so lists are comma separated:
//
//	{"batch_size": "25,32", "epochs": "100,500", "optimizer": "adam,rmsprop", "cv": "10"}
//
// A missing file is not an error.
func (c *Config) ApplyHyperparameters(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "read hyperparameters")
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "parse hyperparameters")
	}
	for key, value := range raw {
		var s = stringValue(value)
		switch key {
		case "batch_size":
			if c.Grid.BatchSizes, err = parseInts(key, s); err != nil {
				return err
			}
		case "epochs", "nb_epoch":
			if c.Grid.Epochs, err = parseInts(key, s); err != nil {
				return err
			}
		case "optimizer":
			c.Grid.Optimizers = splitList(s)
		case "cv", "folds":
			if c.Folds, err = parseInt(key, s); err != nil {
				return err
			}
		case "jobs", "n_jobs":
			if c.Jobs, err = parseInt(key, s); err != nil {
				return err
			}
		case "seed", "random_state":
			n, err := parseInt(key, s)
			if err != nil {
				return err
			}
			c.Seed = int64(n)
		case "test_size":
			if c.TestSize, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				return errors.Wrapf(ErrInvalid, "%s=%q", key, s)
			}
		}
	}
	return nil
}

// stringValue accepts the string form SageMaker sends as well as plain JSON
// numbers and arrays written by hand.
func stringValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case []interface{}:
		var parts = make([]string, len(v))
		for i, item := range v {
			parts[i] = stringValue(item)
		}
		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		var data, _ = json.Marshal(v)
		return string(data)
	}
}

func splitList(s string) []string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func parseInts(key, s string) ([]int, error) {
	var result []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "%s=%q", key, s)
		}
		result = append(result, n)
	}
	return result, nil
}

func parseInt(key, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalid, "%s=%q", key, s)
	}
	return n, nil
}
