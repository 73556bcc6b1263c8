package documents

// DocTypeIntroduceGoods is the document type for introducing goods made
// in the Russian Federation into circulation.
const DocTypeIntroduceGoods = "LP_INTRODUCE_GOODS"

// Document is the create-document payload. Fields are sent as given and
// are not validated before submission.
type Document struct {
	Description    *Description `json:"description,omitempty"`
	DocID          string       `json:"doc_id"`
	DocStatus      string       `json:"doc_status"`
	DocType        string       `json:"doc_type"`
	ImportRequest  bool         `json:"importRequest"`
	OwnerINN       string       `json:"owner_inn"`
	ParticipantINN string       `json:"participant_inn"`
	ProducerINN    string       `json:"producer_inn"`
	ProductionDate string       `json:"production_date"`
	ProductionType string       `json:"production_type"`
	Products       []Product    `json:"products,omitempty"`
	RegDate        string       `json:"reg_date"`
	RegNumber      string       `json:"reg_number"`
}

// Description identifies the participant submitting the document.
type Description struct {
	ParticipantINN string `json:"participantInn"`
}

// Product is one item introduced by the document.
type Product struct {
	CertificateDocument       string `json:"certificate_document"`
	CertificateDocumentDate   string `json:"certificate_document_date"`
	CertificateDocumentNumber string `json:"certificate_document_number"`
	OwnerINN                  string `json:"owner_inn"`
	ProducerINN               string `json:"producer_inn"`
	ProductionDate            string `json:"production_date"`
	TNVEDCode                 string `json:"tnved_code"`
	UITCode                   string `json:"uit_code"`
	UITUCode                  string `json:"uitu_code"`
}
