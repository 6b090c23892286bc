package automation

// Paths dos webhooks na plataforma de automação, relativos ao BaseURL.
type Paths struct {
	ChangeStage    string `yaml:"change_stage"`
	SendMessage    string `yaml:"send_message"`
	CreateUser     string `yaml:"create_user"`
	CreateInstance string `yaml:"create_instance"`
	DeleteInstance string `yaml:"delete_instance"`
}

func DefaultPaths() Paths {
	return Paths{
		ChangeStage:    "/webhook/mudar-etapa",
		SendMessage:    "/webhook/enviar-mensagem",
		CreateUser:     "/functions/v1/create-user-and-assign-role",
		CreateInstance: "/webhook/criar-instancia",
		DeleteInstance: "/webhook/excluir-instancia",
	}
}

type ChangeStageInput struct {
	LeadID        int64  `json:"leadId"`
	TargetStageID int64  `json:"targetStageId"`
	ClinicID      string `json:"clinicId"`
}

type SendMessageInput struct {
	ClinicID string `json:"clinicId"`
	LeadID   int64  `json:"leadId"`
	StageID  int64  `json:"stageId"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
}

type CreateUserInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ClinicID string `json:"clinicId"`
}

type createUserResponse struct {
	UserID string `json:"userId"`
}

type CreateInstanceInput struct {
	ClinicID     string `json:"clinicId"`
	InstanceName string `json:"instanceName"`
}

type InstanceOutput struct {
	InstanceID string `json:"instanceId"`
	Status     string `json:"status"`
}

type deleteInstanceRequest struct {
	ClinicID   string `json:"clinicId"`
	InstanceID string `json:"instanceId"`
}
