package checklist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driverTemplate() Template {
	return Template{
		EntityType: "driver",
		Items: []TemplateItem{
			{Key: "first_name", Name: "First Name"},
			{Key: "licenses", Name: "Driver Licence", File: true, Mandatory: true},
			{Key: "immigration_doc", Name: "Immigration Document", File: true},
			{Key: "log_books", Name: "Log Books", File: true, Optional: true},
		},
	}
}

func citizenException() []ExceptionRule {
	return []ExceptionRule{{
		EntityType: "driver",
		FieldKey:   "immigration_doc",
		When:       &Condition{Field: "immigration_status", In: []string{"CIT"}},
	}}
}

func readyDriver() Entity {
	return Entity{
		Type:   "driver",
		ID:     "12",
		Status: "NW",
		Fields: map[string]Value{
			"first_name":         Scalar("Ada"),
			"immigration_status": Scalar("PR"),
			"licenses": List(
				Record{"id": 3, "was_reviewed": false},
				Record{"id": 7, "was_reviewed": true},
			),
			"immigration_doc": Single(Record{"id": 1, "was_reviewed": true}),
			"log_books":       List(),
		},
	}
}

func TestIsReadyAllRequirementsMet(t *testing.T) {
	assert.True(t, IsReady(readyDriver(), driverTemplate(), nil, refNow))
}

func TestIsReadyLatestRecordMustBeReviewed(t *testing.T) {
	e := readyDriver()
	e.Fields["licenses"] = List(
		Record{"id": 9, "was_reviewed": false},
		Record{"id": 7, "was_reviewed": true},
	)
	assert.False(t, IsReady(e, driverTemplate(), nil, refNow))
}

func TestIsReadyEmptyScalarFails(t *testing.T) {
	e := readyDriver()
	e.Fields["first_name"] = Scalar("   ")
	assert.False(t, IsReady(e, driverTemplate(), nil, refNow))

	e.Fields["first_name"] = Scalar(nil)
	assert.False(t, IsReady(e, driverTemplate(), nil, refNow))
}

func TestIsReadyMissingFieldFails(t *testing.T) {
	e := readyDriver()
	delete(e.Fields, "first_name")
	assert.False(t, IsReady(e, driverTemplate(), nil, refNow))

	res := Evaluate(e, driverTemplate(), nil, refNow)
	assert.Equal(t, ItemMissingField, res.Items[0].State)
}

func TestIsReadyExceptionWaivesSingleKey(t *testing.T) {
	e := readyDriver()
	e.Fields["immigration_status"] = Scalar("CIT")
	e.Fields["immigration_doc"] = List()
	assert.False(t, IsReady(e, driverTemplate(), nil, refNow))
	assert.True(t, IsReady(e, driverTemplate(), citizenException(), refNow))

	e.Fields["licenses"] = List()
	assert.False(t, IsReady(e, driverTemplate(), citizenException(), refNow))
}

func TestIsReadyExceptionIgnoredForOtherEntityTypes(t *testing.T) {
	e := readyDriver()
	e.Type = "employee"
	e.Fields["immigration_status"] = Scalar("CIT")
	e.Fields["immigration_doc"] = List()
	assert.False(t, IsReady(e, driverTemplate(), citizenException(), refNow))
}

func TestIsReadyPredicateException(t *testing.T) {
	e := readyDriver()
	e.Fields["licenses"] = List()
	rules := []ExceptionRule{{
		FieldKey:  "licenses",
		Predicate: func(e Entity) bool { return e.Status == "NW" },
	}}
	assert.True(t, IsReady(e, driverTemplate(), rules, refNow))
}

func TestIsReadyActivityGapsFailIndependently(t *testing.T) {
	tpl := driverTemplate()
	tpl.ActivityYears = 3
	e := readyDriver()
	e.Fields[DefaultActivityKey] = List(
		Record{"start_date": "2025-01-01", "till_now": true},
	)
	assert.False(t, IsReady(e, tpl, nil, refNow))

	res := Evaluate(e, tpl, nil, refNow)
	assert.False(t, res.Ready)
	assert.True(t, res.ActivityChecked)
	require.Len(t, res.Gaps, 1)
	assert.Empty(t, res.Blocking())

	e.Fields[DefaultActivityKey] = List(
		Record{"start_date": "2019-01-01", "till_now": true},
	)
	assert.True(t, IsReady(e, tpl, nil, refNow))
}

func TestEvaluateReportsEveryItem(t *testing.T) {
	e := readyDriver()
	e.Fields["first_name"] = Scalar("")
	e.Fields["licenses"] = List(Record{"id": 4, "was_reviewed": false})

	res := Evaluate(e, driverTemplate(), nil, refNow)
	require.Len(t, res.Items, 4)
	assert.False(t, res.Ready)
	assert.Equal(t, ItemMissing, res.Items[0].State)
	assert.Equal(t, ItemUnreviewed, res.Items[1].State)
	assert.Equal(t, "4", res.Items[1].RecordID)
	assert.Equal(t, ItemSatisfied, res.Items[2].State)
	assert.Equal(t, ItemOptional, res.Items[3].State)
	assert.Equal(t, []string{"first_name", "licenses"}, res.Blocking())
}

func TestMandatoryOverridesOptional(t *testing.T) {
	tpl := Template{Items: []TemplateItem{{Key: "sin", Optional: true, Mandatory: true}}}
	e := Entity{Type: "employee", Fields: map[string]Value{"sin": List()}}
	assert.False(t, IsReady(e, tpl, nil, refNow))
}

func TestIsReadyMonotonicInReviews(t *testing.T) {
	tpl := Template{Items: []TemplateItem{
		{Key: "licenses"}, {Key: "abstracts"}, {Key: "road_tests"},
	}}
	base := func(reviewed [3]bool) Entity {
		return Entity{Type: "driver", Fields: map[string]Value{
			"licenses":   List(Record{"id": 1, "was_reviewed": reviewed[0]}),
			"abstracts":  List(Record{"id": 2, "was_reviewed": reviewed[1]}),
			"road_tests": Single(Record{"id": 3, "was_reviewed": reviewed[2]}),
		}}
	}
	for mask := 0; mask < 8; mask++ {
		var state [3]bool
		for i := range state {
			state[i] = mask&(1<<i) != 0
		}
		before := IsReady(base(state), tpl, nil, refNow)
		for i := range state {
			if state[i] {
				continue
			}
			next := state
			next[i] = true
			after := IsReady(base(next), tpl, nil, refNow)
			assert.False(t, before && !after, "marking %d reviewed regressed readiness", i)
		}
	}
}

func TestEntityUnmarshalClassifiesFields(t *testing.T) {
	payload := []byte(`{
		"id": 42,
		"status": "NW",
		"update_status": "UP",
		"first_name": "Ada",
		"licenses": [{"id": 3, "was_reviewed": false}, {"id": 10, "was_reviewed": true}],
		"sin": {"id": 5, "was_reviewed": true},
		"mentor_forms": [],
		"tags": ["a", "b"],
		"notes": null
	}`)
	var e Entity
	require.NoError(t, json.Unmarshal(payload, &e))
	assert.Equal(t, "42", e.ID)
	assert.Equal(t, "NW", e.Status)
	assert.Equal(t, "UP", e.UpdateStatus)
	assert.Equal(t, KindScalar, e.Field("first_name").Kind())
	assert.Equal(t, KindRecordList, e.Field("licenses").Kind())
	assert.Equal(t, KindRecord, e.Field("sin").Kind())
	assert.Equal(t, KindRecordList, e.Field("mentor_forms").Kind())
	assert.Equal(t, KindScalar, e.Field("tags").Kind())
	assert.True(t, e.Field("notes").IsEmpty())
	assert.Equal(t, KindMissing, e.Field("nope").Kind())

	current := FindHighestID(e.Field("licenses"))
	assert.True(t, current.Reviewed())
	assert.Equal(t, "10", current.String("id"))
}

func TestIsReadyMalformedDocumentArrays(t *testing.T) {
	tpl := Template{
		EntityType: "driver",
		Items:      []TemplateItem{{Key: "licenses", Name: "Driver Licence", File: true, Mandatory: true}},
	}

	var unreviewed Entity
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "licenses": [{"id": 3, "was_reviewed": false}, null]}`), &unreviewed))
	assert.Equal(t, KindRecordList, unreviewed.Field("licenses").Kind())
	assert.Len(t, unreviewed.Field("licenses").Records(), 1)
	assert.False(t, IsReady(unreviewed, tpl, nil, refNow))

	var reviewed Entity
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "licenses": ["x", {"id": 4, "was_reviewed": true}, 7]}`), &reviewed))
	assert.True(t, IsReady(reviewed, tpl, nil, refNow))

	var noRecords Entity
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "licenses": [null, "scan.pdf"]}`), &noRecords))
	assert.Equal(t, KindScalar, noRecords.Field("licenses").Kind())
	assert.False(t, IsReady(noRecords, tpl, nil, refNow))
	assert.Equal(t, ItemMissing, Evaluate(noRecords, tpl, nil, refNow).Items[0].State)
}
