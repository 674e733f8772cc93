package veeva

import "strings"

// MilestoneObjects derives the study- and site-level milestone object names,
// and the field used to filter milestones by study, from the resolved study
// object. Vaults that expose `study__c` name their milestone objects with the
// same custom suffix; the generic `studies` fallback uses plain REST naming.
func MilestoneObjects(studyObject string) (studyMilestones, siteMilestones, studyField string) {
	switch {
	case strings.HasSuffix(studyObject, "__c"):
		return "study_milestone__c", "site_milestone__c", "study__c"
	case strings.HasSuffix(studyObject, "__v"):
		return "study_milestone__v", "site_milestone__v", "study__v"
	default:
		return "study_milestones", "site_milestones", "study_id"
	}
}
