package validate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// nameValidator accepts records with a non-empty "name" field and
// normalizes them by trimming the value.
type nameValidator struct{}

func (nameValidator) Parse(r Record) (Record, error) {
	raw, ok := r["name"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, FieldErrors{{Field: "name", Message: "field is required"}}
	}
	return Record{"name": strings.TrimSpace(raw)}, nil
}

func TestPartitionCoversInputExactly(t *testing.T) {
	records := []Record{
		{"name": "alpha"},
		{"id": 2}, // missing name
		{"name": "  beta  "},
		{"name": ""}, // empty name
		{"name": "gamma"},
	}

	accepted, rejected := Partition(records, nameValidator{})

	if len(accepted)+len(rejected) != len(records) {
		t.Fatalf("accepted(%d) + rejected(%d) != input(%d)",
			len(accepted), len(rejected), len(records))
	}
	if len(accepted) != 3 || len(rejected) != 2 {
		t.Errorf("partition = %d accepted / %d rejected, want 3/2", len(accepted), len(rejected))
	}

	// input order is preserved within each side
	if accepted[0]["name"] != "alpha" || accepted[1]["name"] != "beta" || accepted[2]["name"] != "gamma" {
		t.Errorf("accepted records out of order: %v", accepted)
	}
}

func TestPartitionEmptyInput(t *testing.T) {
	accepted, rejected := Partition(nil, nameValidator{})
	if len(accepted) != 0 || len(rejected) != 0 {
		t.Errorf("empty input should produce empty partition, got %d/%d", len(accepted), len(rejected))
	}
}

func TestPartitionRejectionCarriesOriginalPayload(t *testing.T) {
	original := Record{"id": 7, "note": "no name here"}

	_, rejected := Partition([]Record{original}, nameValidator{})

	if len(rejected) != 1 {
		t.Fatalf("rejected = %d, want 1", len(rejected))
	}
	if rejected[0].Record["id"] != 7 {
		t.Error("rejection must carry the original, unmodified payload")
	}
	if len(rejected[0].Reasons) == 0 || rejected[0].Reasons[0].Field != "name" {
		t.Errorf("reasons must name the failing field, got %+v", rejected[0].Reasons)
	}
}

func TestPartitionNormalizationIsIdempotent(t *testing.T) {
	accepted, _ := Partition([]Record{{"name": "  delta "}}, nameValidator{})
	if len(accepted) != 1 {
		t.Fatal("expected one accepted record")
	}

	again, rejected := Partition(accepted, nameValidator{})
	if len(rejected) != 0 {
		t.Fatal("re-validating a clean record must not reject it")
	}
	if again[0]["name"] != accepted[0]["name"] {
		t.Errorf("re-validation changed the record: %v vs %v", again[0], accepted[0])
	}
}

func TestStreamOneVerdictPerRecord(t *testing.T) {
	in := make(chan Record)
	go func() {
		defer close(in)
		in <- Record{"name": "one"}
		in <- Record{"id": 2}
		in <- Record{"name": "three"}
	}()

	accepted, rejected := Stream(context.Background(), in, nameValidator{})

	var acceptedCount, rejectedCount int
	for accepted != nil || rejected != nil {
		select {
		case _, ok := <-accepted:
			if !ok {
				accepted = nil
				continue
			}
			acceptedCount++
		case rej, ok := <-rejected:
			if !ok {
				rejected = nil
				continue
			}
			rejectedCount++
			if len(rej.Reasons) == 0 {
				t.Error("streamed rejection must carry reasons")
			}
		}
	}

	if acceptedCount != 2 || rejectedCount != 1 {
		t.Errorf("stream verdicts = %d accepted / %d rejected, want 2/1", acceptedCount, rejectedCount)
	}
}

func TestStreamStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan Record)
	accepted, rejected := Stream(ctx, in, nameValidator{})

	in <- Record{"name": "first"}
	cancel()
	// Nobody reads the outputs after cancel; the filter goroutine must
	// still exit and close its channels.
	close(in)

	deadline := time.After(time.Second)
	for accepted != nil || rejected != nil {
		select {
		case _, ok := <-accepted:
			if !ok {
				accepted = nil
			}
		case _, ok := <-rejected:
			if !ok {
				rejected = nil
			}
		case <-deadline:
			t.Fatal("stream did not shut down after context cancellation")
		}
	}
}

func TestFieldErrorsError(t *testing.T) {
	err := FieldErrors{
		{Field: "email", Message: "invalid format"},
		{Field: "amount", Message: "must be positive"},
	}

	msg := err.Error()
	for _, want := range []string{"email: invalid format", "amount: must be positive"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, expected it to contain %q", msg, want)
		}
	}
}

func TestFieldErrorsHasField(t *testing.T) {
	err := FieldErrors{{Field: "email", Message: "invalid"}}

	if !err.HasField("email") {
		t.Error("HasField(email) should be true")
	}
	if err.HasField("amount") {
		t.Error("HasField(amount) should be false")
	}
}

func TestReasonsFrom(t *testing.T) {
	structured := ReasonsFrom(FieldErrors{{Field: "id", Message: "required"}})
	if len(structured) != 1 || structured[0].Field != "id" {
		t.Errorf("structured reasons lost: %+v", structured)
	}

	plain := ReasonsFrom(errors.New("something broke"))
	if len(plain) != 1 || plain[0].Message != "something broke" {
		t.Errorf("plain error should become a catch-all reason, got %+v", plain)
	}
}
