package model

type PolicyStatus string

const (
	PolicyNew       PolicyStatus = "New Policy"
	PolicyRenew     PolicyStatus = "Renew Policy"
	PolicyCancelled PolicyStatus = "Cancelled"
)

type Policy struct {
	ID            int64        `json:"id,omitempty"`
	PolicyNo      string       `json:"policyNo"`
	PolicyHolder  string       `json:"policyHolder"`
	Premium       float64      `json:"premium"`
	SumInsured    float64      `json:"sumInsured"`
	InceptionDate string       `json:"inceptionDate"`
	ExpiredDate   string       `json:"expiredDate"`
	IssueDate     string       `json:"issueDate"`
	Address       string       `json:"address"`
	Province      string       `json:"province"`
	Product       string       `json:"product"`
	Status        PolicyStatus `json:"status,omitempty"`
	Items         []PolicyItem `json:"items"`
}

type PolicyItem struct {
	ID            int64  `json:"id,omitempty"`
	PolicyNo      string `json:"policyNo"`
	InceptionDate string `json:"inceptionDate"`
	ExpiredDate   string `json:"expiredDate"`
	IssueDate     string `json:"issueDate"`
	InsuredName   string `json:"insuredName"`
	CardNo        string `json:"cardNo"`
	DOB           string `json:"dob"`
	Gender        string `json:"gender"`
	Remark        string `json:"remark"`
}
