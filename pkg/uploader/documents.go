package uploader

// Base uploader ids.
const (
	UploaderDocuments           = "documents"
	UploaderDocumentsIssueDate  = "documents_with_issue_date"
	UploaderDocumentsExpiryDate = "documents_with_expiry_date"
	UploaderLicenses            = "licenses"
	UploaderSIN                 = "sin"
	UploaderLicensePlate        = "license_plate"
	UploaderPhotos              = "photos"
)

// documentUploaders maps document keys to the base uploader that collects them.
var documentUploaders = map[string]string{
	"licenses":             UploaderLicenses,
	"sin":                  UploaderSIN,
	"license_plates":       UploaderLicensePlate,
	"photos":               UploaderPhotos,
	"truck_photos":         UploaderPhotos,
	"equipment_photos":     UploaderPhotos,
	"incident_photos":      UploaderPhotos,
	"immigration_doc":      UploaderDocumentsExpiryDate,
	"abstracts":            UploaderDocumentsIssueDate,
	"criminal_records":     UploaderDocumentsIssueDate,
	"road_tests":           UploaderDocumentsIssueDate,
	"drug_tests":           UploaderDocumentsIssueDate,
	"tdg_cards":            UploaderDocumentsExpiryDate,
	"fast_card":            UploaderDocumentsExpiryDate,
	"medical_cards":        UploaderDocumentsExpiryDate,
	"passports":            UploaderDocumentsExpiryDate,
	"us_visas":             UploaderDocumentsExpiryDate,
	"safety_docs":          UploaderDocumentsExpiryDate,
	"insurance_docs":       UploaderDocumentsExpiryDate,
	"ifta_licenses":        UploaderDocumentsExpiryDate,
	"registrations":        UploaderDocumentsExpiryDate,
	"ownership_docs":       UploaderDocumentsIssueDate,
	"inspections":          UploaderDocumentsIssueDate,
	"mentor_forms":         UploaderDocumentsIssueDate,
	"employment_contracts": UploaderDocumentsIssueDate,
	"void_cheques":         UploaderDocuments,
	"resumes":              UploaderDocuments,
	"education_docs":       UploaderDocuments,
	"log_books":            UploaderDocuments,
	"incorporation_docs":   UploaderDocuments,
	"police_reports":       UploaderDocuments,
	"wcb_forms":            UploaderDocuments,
}

// UploaderFor returns the base uploader id for a document key.
func UploaderFor(documentKey string) string {
	if id, ok := documentUploaders[documentKey]; ok {
		return id
	}
	return UploaderDocuments
}
