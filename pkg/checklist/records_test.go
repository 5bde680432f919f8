package checklist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindHighestIDSelectsGreatestID(t *testing.T) {
	v := List(
		Record{"id": 3, "was_reviewed": false},
		Record{"id": 7, "was_reviewed": true},
		Record{"id": 5, "was_reviewed": false},
	)
	got := FindHighestID(v)
	assert.Equal(t, 7, got["id"])
	assert.True(t, got.Reviewed())
}

func TestFindHighestIDPassesSingleRecordThrough(t *testing.T) {
	rec := Record{"id": 2, "file": "a.pdf"}
	assert.Equal(t, rec, FindHighestID(Single(rec)))
}

func TestFindHighestIDIsIdempotent(t *testing.T) {
	v := List(Record{"id": json.Number("11")}, Record{"id": json.Number("4")})
	once := FindHighestID(v)
	twice := FindHighestID(Single(once))
	assert.Equal(t, once, twice)
}

func TestFindHighestIDEmptyAndMalformedInputs(t *testing.T) {
	assert.Equal(t, Record{}, FindHighestID(List()))
	assert.Equal(t, Record{}, FindHighestID(Missing()))
	assert.Equal(t, Record{}, FindHighestID(Scalar("x")))
	assert.False(t, FindHighestID(List()).Reviewed())
	assert.Nil(t, FindHighestID(List())["file"])
}

func TestFindHighestIDRecordsWithoutIDs(t *testing.T) {
	first := Record{"name": "first"}
	v := List(first, Record{"name": "second"})
	assert.Equal(t, first, FindHighestID(v))

	v = List(Record{"name": "no-id"}, Record{"id": "8"}, Record{"id": 2.5})
	assert.Equal(t, "8", FindHighestID(v)["id"])
}

func TestFindHighestIDDoesNotMutateInput(t *testing.T) {
	records := []Record{{"id": 1}, {"id": 9}, {"id": 4}}
	FindHighestID(List(records...))
	assert.Equal(t, 1, records[0]["id"])
	assert.Equal(t, 9, records[1]["id"])
	assert.Equal(t, 4, records[2]["id"])
}
