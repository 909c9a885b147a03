package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunSteps_StopsAtFirstFailureAndPrefixesName(t *testing.T) {
	var ran []string
	err := RunSteps(
		Step{Name: "create-data-lv", Run: func() error {
			ran = append(ran, "create-data-lv")
			return nil
		}},
		Step{Name: "create-meta-lv", Run: func() error {
			ran = append(ran, "create-meta-lv")
			return errors.New("no space left")
		}},
		Step{Name: "convert-to-pool", Run: func() error {
			ran = append(ran, "convert-to-pool")
			return nil
		}},
	)

	assert.EqualError(t, err, "create-meta-lv: no space left")
	assert.Equal(t, []string{"create-data-lv", "create-meta-lv"}, ran)
}

func TestJoinCleanupErrors_CombinesNonNil(t *testing.T) {
	err := JoinCleanupErrors(nil, errors.New("fsync failed"), errors.New("close failed"))

	assert.ErrorContains(t, err, "fsync failed")
	assert.ErrorContains(t, err, "close failed")
}
