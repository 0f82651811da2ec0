package model

// Datatype is the value type of a ProcivisOne claim
type Datatype string

const (
	DatatypeString  Datatype = "STRING"
	DatatypeNumber  Datatype = "NUMBER"
	DatatypeBoolean Datatype = "BOOLEAN"
	DatatypeObject  Datatype = "OBJECT"
	DatatypeDate    Datatype = "DATE"
)

// Fixed ProcivisOne schema values
const (
	ProcivisFormat           = "SD_JWT"
	ProcivisSchemaType       = "ProcivisOneSchema2024"
	ProcivisRevocationMethod = "NONE"
	ProcivisWalletStorage    = "SOFTWARE"
	ProcivisLayoutType       = "CARD"
)

// ProcivisOneClaim is one node of the claim tree
type ProcivisOneClaim struct {
	ID           string             `json:"id"`
	CreatedDate  string             `json:"createdDate"`
	LastModified string             `json:"lastModified"`
	Key          string             `json:"key"`
	Datatype     Datatype           `json:"datatype"`
	Required     bool               `json:"required"`
	Array        bool               `json:"array"`
	Claims       []ProcivisOneClaim `json:"claims"`
}

// IsRepeatableGroup reports an OBJECT claim that repeats (e.g. Pets)
func (c *ProcivisOneClaim) IsRepeatableGroup() bool {
	return c.Datatype == DatatypeObject && c.Array
}

// IsGroup reports a non-repeating OBJECT claim (e.g. Address)
func (c *ProcivisOneClaim) IsGroup() bool {
	return c.Datatype == DatatypeObject && !c.Array
}

// ProcivisOneBackground is the card background
type ProcivisOneBackground struct {
	Color string `json:"color"`
	Image string `json:"image,omitempty"`
}

// ProcivisOneLogo is the card logo block
type ProcivisOneLogo struct {
	Image           string `json:"image"`
	FontColor       string `json:"fontColor"`
	BackgroundColor string `json:"backgroundColor"`
}

// ProcivisOneLayoutProperties controls card rendering
type ProcivisOneLayoutProperties struct {
	Background         ProcivisOneBackground `json:"background"`
	Logo               ProcivisOneLogo       `json:"logo"`
	PrimaryAttribute   string                `json:"primaryAttribute"`
	SecondaryAttribute string                `json:"secondaryAttribute,omitempty"`
}

// ProcivisOneSchema is a ProcivisOne credential schema
type ProcivisOneSchema struct {
	ID                string                      `json:"id"`
	CreatedDate       string                      `json:"createdDate"`
	LastModified      string                      `json:"lastModified"`
	Name              string                      `json:"name"`
	Format            string                      `json:"format"`
	RevocationMethod  string                      `json:"revocationMethod"`
	OrganisationID    string                      `json:"organisationId"`
	Claims            []ProcivisOneClaim          `json:"claims"`
	WalletStorageType string                      `json:"walletStorageType"`
	SchemaID          string                      `json:"schemaId"`
	SchemaType        string                      `json:"schemaType"`
	ImportedSourceURL string                      `json:"importedSourceUrl"`
	LayoutType        string                      `json:"layoutType"`
	LayoutProperties  ProcivisOneLayoutProperties `json:"layoutProperties"`
	AllowSuspension   bool                        `json:"allowSuspension"`
	ExternalSchema    bool                        `json:"externalSchema"`
}

// DatatypeForAttribute maps an OCA attribute type tag to a claim datatype
func DatatypeForAttribute(tag string) Datatype {
	switch tag {
	case AttrNumeric:
		return DatatypeNumber
	case AttrBoolean:
		return DatatypeBoolean
	case AttrDateTime:
		return DatatypeDate
	default:
		return DatatypeString
	}
}

// AttributeForDatatype maps a scalar claim datatype to an OCA attribute type tag
func AttributeForDatatype(dt Datatype) string {
	switch dt {
	case DatatypeNumber:
		return AttrNumeric
	case DatatypeBoolean:
		return AttrBoolean
	case DatatypeDate:
		return AttrDateTime
	default:
		return AttrText
	}
}
