package reconcile

// Declared schemas for every fragment-fed entity. These drive both the
// deterministic lookup and the heuristic prompt; anything outside a schema's
// field set never reaches the database.

var armSchema = Schema{
	Entity: "StudyArm",
	Fields: []Field{
		{Name: "id", Kind: KindString},
		{Name: "label", Kind: KindString, Required: true},
		{Name: "type", Kind: KindString},
		{Name: "description", Kind: KindString},
	},
}

var interventionSchema = Schema{
	Entity: "Intervention",
	Fields: []Field{
		{Name: "id", Kind: KindString},
		{Name: "name", Kind: KindString, Required: true},
		{Name: "description", Kind: KindString},
		{Name: "type", Kind: KindString},
	},
}

var outcomeSchema = Schema{
	Entity: "Outcome",
	Fields: []Field{
		{Name: "id", Kind: KindString},
		{Name: "measure", Kind: KindString, Required: true},
		{Name: "time_frame", Kind: KindString},
	},
}

var contactSchema = Schema{
	Entity: "Contact",
	Fields: []Field{
		{Name: "name", Kind: KindString, Required: true},
		{Name: "role", Kind: KindString},
		{Name: "organization", Kind: KindString},
	},
}

var adverseEventGroupSchema = Schema{
	Entity: "AdverseEventGroup",
	Fields: []Field{
		{Name: "id", Kind: KindString, Required: true},
		{Name: "title", Kind: KindString},
		{Name: "description", Kind: KindString},
		{Name: "serious_num_affected", Kind: KindInt},
		{Name: "serious_num_at_risk", Kind: KindInt},
		{Name: "other_num_affected", Kind: KindInt},
		{Name: "other_num_at_risk", Kind: KindInt},
	},
}

var participantGroupSchema = Schema{
	Entity: "ParticipantGroup",
	Fields: []Field{
		{Name: "id", Kind: KindString, Required: true},
		{Name: "title", Kind: KindString},
		{Name: "description", Kind: KindString},
	},
}
