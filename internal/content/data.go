package content

// The types in this file mirror the authored content files. The same field names are used in JSON and YAML.

type caseData struct {
	CaseID          string             `json:"caseId"          yaml:"caseId"`
	Title           string             `json:"title"           yaml:"title"`
	Summary         string             `json:"summary"         yaml:"summary"`
	EntryDialogueID string             `json:"entryDialogueId" yaml:"entryDialogueId"`
	Dialogues       []caseDialogueData `json:"dialogues"       yaml:"dialogues"`
}

type caseDialogueData struct {
	DialogueID   string `json:"dialogueId"   yaml:"dialogueId"`
	TranscriptID string `json:"transcriptId" yaml:"transcriptId"`
	SubjectID    string `json:"subjectId"    yaml:"subjectId"`
}

type dialogueData struct {
	CaseID      string     `json:"caseId"      yaml:"caseId"`
	DialogueID  string     `json:"dialogueId"  yaml:"dialogueId"`
	EntryNodeID string     `json:"entryNodeId" yaml:"entryNodeId"`
	Nodes       []nodeData `json:"nodes"       yaml:"nodes"`
}

type nodeData struct {
	ID               string            `json:"id"               yaml:"id"`
	Type             string            `json:"type"             yaml:"type"`
	Tags             []string          `json:"tags"             yaml:"tags"`
	Metadata         map[string]string `json:"metadata"         yaml:"metadata"`
	SpeakerID        string            `json:"speakerId"        yaml:"speakerId"`
	Text             string            `json:"text"             yaml:"text"`
	TranscriptLineID string            `json:"transcriptLineId" yaml:"transcriptLineId"`
	NextNodeID       string            `json:"nextNodeId"       yaml:"nextNodeId"`
	Choices          []choiceData      `json:"choices"          yaml:"choices"`
}

type choiceData struct {
	ID          string `json:"id"          yaml:"id"`
	Text        string `json:"text"        yaml:"text"`
	NextNodeID  string `json:"nextNodeId"  yaml:"nextNodeId"`
	ConditionID string `json:"conditionId" yaml:"conditionId"`
	EffectID    string `json:"effectId"    yaml:"effectId"`
}

type evidenceData struct {
	CaseID   string             `json:"caseId"   yaml:"caseId"`
	Evidence []evidenceItemData `json:"evidence" yaml:"evidence"`
}

type evidenceItemData struct {
	ID            string            `json:"id"            yaml:"id"`
	Type          string            `json:"type"          yaml:"type"`
	Title         string            `json:"title"         yaml:"title"`
	Description   string            `json:"description"   yaml:"description"`
	Tags          []string          `json:"tags"          yaml:"tags"`
	Metadata      map[string]string `json:"metadata"      yaml:"metadata"`
	AssetID       string            `json:"assetId"       yaml:"assetId"`
	SourcePath    string            `json:"sourcePath"    yaml:"sourcePath"`
	UnlockOnStart bool              `json:"unlockOnStart" yaml:"unlockOnStart"`
}

type relationsData struct {
	CaseID    string         `json:"caseId"    yaml:"caseId"`
	Relations []relationData `json:"relations" yaml:"relations"`
}

type relationData struct {
	ID           string                `json:"id"           yaml:"id"`
	CaseID       string                `json:"caseId"       yaml:"caseId"`
	Type         string                `json:"type"         yaml:"type"`
	Participants []participantData     `json:"participants" yaml:"participants"`
	Metadata     *relationMetadataData `json:"metadata"     yaml:"metadata"`
}

type participantData struct {
	Anchor anchorData `json:"anchor" yaml:"anchor"`
	Role   string     `json:"role"   yaml:"role"`
}

type anchorData struct {
	// CaseID defaults to the case of the relation.
	CaseID     string `json:"caseId"     yaml:"caseId"`
	SourceType string `json:"sourceType" yaml:"sourceType"`
	ObjectID   string `json:"objectId"   yaml:"objectId"`
	SubID      string `json:"subId"      yaml:"subId"`
}

type relationMetadataData struct {
	Title       string   `json:"title"       yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Severity    *int     `json:"severity"    yaml:"severity"`
	Tags        []string `json:"tags"        yaml:"tags"`
}

type progressData struct {
	CaseID                string   `json:"caseId"                yaml:"caseId"`
	RequiredRelationIDs   []string `json:"requiredRelationIds"   yaml:"requiredRelationIds"`
	MinimumContradictions int      `json:"minimumContradictions" yaml:"minimumContradictions"`
}
