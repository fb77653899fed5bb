package session

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"text2phenotype.com/sdoh/types"
)

type mergeDoc struct {
	Answers      types.Answers      `json:"answers"`
	Demographics types.Demographics `json:"demographics"`
}

// Merge applies the remote answers and demographics on top of the local
// snapshot as a JSON merge patch. Fields the remote leaves absent keep their
// local value; every field the remote has wins.
func Merge(local *types.Snapshot, remote types.ScreeningState) (types.Answers, types.Demographics, error) {
	if local == nil {
		return remote.Answers, remote.Demographics.Clone(), nil
	}
	original, err := json.Marshal(mergeDoc{Answers: local.Answers, Demographics: local.Demographics})
	if err != nil {
		return types.Answers{}, types.Demographics{}, err
	}
	patch, err := json.Marshal(mergeDoc{Answers: remote.Answers, Demographics: remote.Demographics})
	if err != nil {
		return types.Answers{}, types.Demographics{}, err
	}
	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return types.Answers{}, types.Demographics{}, fmt.Errorf("merge local snapshot: %w", err)
	}
	var result mergeDoc
	if err = json.Unmarshal(merged, &result); err != nil {
		return types.Answers{}, types.Demographics{}, fmt.Errorf("decode merged snapshot: %w", err)
	}
	return result.Answers, result.Demographics, nil
}
