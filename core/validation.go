// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateIndexRecord validates an IndexRecord before upsert.
//
// Validation rules:
//   - Key must not be empty
//   - Text must not be empty
//   - Vector must not be empty
//
// NOT validated (metadata, legal to omit):
//   - RunID (records written outside a run context carry none)
//   - Ordinal (0 is the valid first segment)
func ValidateIndexRecord(record *IndexRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidIndexRecord)
	}

	if record.Key == "" {
		return fmt.Errorf("%w: %w", ErrInvalidIndexRecord, ErrEmptyRecordKey)
	}

	if record.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidIndexRecord, ErrEmptyRecordText)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidIndexRecord, ErrEmptyVector)
	}

	return nil
}

// ValidateRunID validates a caller-supplied run identifier.
// Run IDs partition every stage's artifacts, so a blank one is rejected.
func ValidateRunID(runID string) error {
	if strings.TrimSpace(runID) == "" {
		return ErrEmptyRunID
	}
	return nil
}
