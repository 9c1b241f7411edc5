package db

// Key layout of the single table. Partition values end in '#' so that a begins_with
// condition on one id can never match a longer id sharing its prefix.
//
//	Case      PK=CASE#<case>#  SK=CASE#           GSI1PK=CASE#           GSI1SK=CASE#<case>#
//	CaseUser  PK=CASE#<case>#  SK=USER#<user>#    GSI1PK=USER#<user>#    GSI1SK=CASE#<case>#
//	CaseFile  PK=CASE#<case>#  SK=FILE#<file>#
//	User      PK=USER#<user>#  SK=USER#           GSI1PK=USER#<token>#   GSI1SK=USER#
//	AuditJob  PK=AUDIT#<job>#  SK=AUDIT#
const (
	casePrefix  = "CASE#"
	userPrefix  = "USER#"
	filePrefix  = "FILE#"
	auditPrefix = "AUDIT#"
)

// Entity type discriminators stored on every item
const (
	EntityCase     = "Case"
	EntityCaseUser = "CaseUser"
	EntityCaseFile = "CaseFile"
	EntityUser     = "User"
	EntityAuditJob = "AuditJob"
)

// ItemKeys holds the primary and GSI1 key attributes shared by every item
type ItemKeys struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK     string `dynamodbav:"GSI1SK,omitempty"`
	EntityType string `dynamodbav:"entityType"`
}

// CasePK is the partition holding a case, its members and its files
func CasePK(caseULID string) string { return casePrefix + caseULID + "#" }

// CaseSK is the sort key of the case item itself
func CaseSK() string { return casePrefix }

// CaseListPK is the GSI1 partition listing every case
func CaseListPK() string { return casePrefix }

// UserPK is the partition holding a user item
func UserPK(userULID string) string { return userPrefix + userULID + "#" }

// UserSK is the sort key of the user item itself
func UserSK() string { return userPrefix }

// CaseUserSK addresses one member inside a case partition
func CaseUserSK(userULID string) string { return userPrefix + userULID + "#" }

// CaseUserSKPrefix matches every member of a case
func CaseUserSKPrefix() string { return userPrefix }

// CaseFileSK addresses one file inside a case partition
func CaseFileSK(fileULID string) string { return filePrefix + fileULID + "#" }

// CaseFileSKPrefix matches every file of a case
func CaseFileSKPrefix() string { return filePrefix }

// TokenGSI1PK addresses the user registered for an identity provider subject
func TokenGSI1PK(tokenID string) string { return userPrefix + tokenID + "#" }

// AuditJobPK is the partition of one audit job
func AuditJobPK(jobULID string) string { return auditPrefix + jobULID + "#" }

// AuditJobSK is the sort key of an audit job item
func AuditJobSK() string { return auditPrefix }
