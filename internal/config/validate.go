package config

import (
	"fmt"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	peakerrors "github.com/alexisbeaulieu97/peakflow/pkg/errors"
)

// ValidateWorkflowFile performs schema validation of a workflow document.
func ValidateWorkflowFile(doc *WorkflowFile) error {
	if doc == nil {
		return peakerrors.NewValidationError("workflow", "document is nil", nil)
	}
	if err := validatorInstance().Struct(doc); err != nil {
		return convertValidationError(err)
	}
	return nil
}

// ValidateSessionFile performs schema validation of a session document and
// rejects duplicate entity names within a kind.
func ValidateSessionFile(doc *SessionFile) error {
	if doc == nil {
		return peakerrors.NewValidationError("session", "document is nil", nil)
	}
	if err := validatorInstance().Struct(doc); err != nil {
		return convertValidationError(err)
	}

	groups := map[workflow.EntityKind][]EntitySpec{
		workflow.Injection: doc.Injections,
		workflow.Segment:   doc.Segments,
		workflow.Group:     doc.Groups,
	}
	for _, kind := range workflow.Kinds {
		seen := make(map[string]struct{})
		for i, spec := range groups[kind] {
			if _, dup := seen[spec.Name]; dup {
				return peakerrors.NewValidationError(fieldForEntity(plural(kind), i, "name"), fmt.Sprintf("duplicate %s name %q", kind, spec.Name), nil)
			}
			seen[spec.Name] = struct{}{}
		}
	}
	return nil
}

func plural(kind workflow.EntityKind) string {
	return kind.String() + "s"
}
