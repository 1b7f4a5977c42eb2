// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateBatchPolicy checks if the batch policy is one of the supported policies.
func ValidateBatchPolicy(policy string) error {
	if policy != constants.BatchPolicyStrict && policy != constants.BatchPolicySkip {
		return fmt.Errorf("expected batch policy of %s or %s, got %s",
			constants.BatchPolicyStrict, constants.BatchPolicySkip, policy)
	}
	return nil
}
