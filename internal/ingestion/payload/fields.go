package payload

// Field names a logical payload field independent of where the CRM put it.
type Field string

// Logical fields extracted from webhook payloads.
const (
	FieldOpportunityID    Field = "opportunity_id"
	FieldPipelineID       Field = "pipeline_id"
	FieldContactID        Field = "contact_id"
	FieldOwnerID          Field = "owner_id"
	FieldNewOwnerID       Field = "new_owner_id"
	FieldChangedBy        Field = "changed_by"
	FieldUserID           Field = "user_id"
	FieldState            Field = "state"
	FieldStage            Field = "stage"
	FieldOriginStage      Field = "origin_stage"
	FieldDestinationStage Field = "destination_stage"
	FieldLossReason       Field = "loss_reason"
	FieldNoteBody         Field = "note_body"
	FieldAppointmentID    Field = "appointment_id"
	FieldAppointmentTitle Field = "appointment_title"
	FieldAppointmentStart Field = "appointment_start"
	FieldEventAt          Field = "event_at"
	FieldFullName         Field = "full_name"
	FieldEmail            Field = "email"
	FieldPhone            Field = "phone"
	FieldNationalID       Field = "national_id"
	FieldMaritalStatus    Field = "marital_status"
	FieldDistrict         Field = "district"
	FieldProfession       Field = "profession"
	FieldSource           Field = "source"
	FieldDetail           Field = "detail"
	FieldSubDetail        Field = "sub_detail"
	FieldSubSubDetail     Field = "sub_sub_detail"
	FieldSubSubSubDetail  Field = "sub_sub_sub_detail"
	FieldBirthDate        Field = "birth_date"
	FieldInterestLevel    Field = "interest_level"
	FieldClientType       Field = "client_type"
	FieldProduct          Field = "product"
	FieldProject          Field = "project"
	FieldPaymentMode      Field = "payment_mode"
)

// fieldPaths is the ordered candidate-path table. Workflow-configured custom
// data wins over payload root keys, which win over the nested CRM objects;
// the workflow value reflects what the operator actually selected, while the
// nested objects carry whatever state the CRM had cached when it fired.
//
// Some aliases look truncated ("marital_statu", "sub_sub_sub_de"): the CRM
// workflow designer silently cuts custom keys at 14 characters, and events
// from workflows built before that was noticed still arrive with the short
// keys.
var fieldPaths = map[Field][]string{
	FieldOpportunityID: {
		"customData.opportunity_id",
		"opportunity_id",
		"opportunity.id",
		"data.opportunity.id",
	},
	FieldPipelineID: {
		"customData.pipeline_id",
		"pipeline_id",
		"opportunity.pipelineId",
		"opportunity.pipeline_id",
	},
	FieldContactID: {
		"customData.contact_id",
		"contact_id",
		"contact.id",
		"data.contact.id",
		"appointment.contact_id",
	},
	FieldOwnerID: {
		"customData.owner_id",
		"owner_id",
		"opportunity.userId",
		"opportunity.user_id",
	},
	FieldNewOwnerID: {
		"customData.new_owner_id",
		"new_owner_id",
		"customData.owner_id",
		"owner_id",
	},
	FieldChangedBy: {
		"customData.changed_by",
		"changed_by",
	},
	FieldUserID: {
		"customData.user_id",
		"user_id",
		"user.id",
		"note.user_id",
	},
	FieldState: {
		"customData.status",
		"status",
		"opportunity.status",
	},
	FieldStage: {
		"customData.stage",
		"stage",
		"opportunity.stage",
		"opportunity.pipelineStage",
		"opportunity.pipeline_stage",
	},
	FieldOriginStage: {
		"customData.origin_stage",
		"origin_stage",
	},
	FieldDestinationStage: {
		"customData.destination_stage",
		"destination_stage",
	},
	FieldLossReason: {
		"customData.loss_reason",
		"loss_reason",
	},
	FieldNoteBody: {
		"customData.note",
		"note.body",
		"note.text",
	},
	FieldAppointmentID: {
		"customData.appointment_id",
		"appointment_id",
		"appointment.id",
	},
	FieldAppointmentTitle: {
		"customData.title",
		"appointment.title",
	},
	FieldAppointmentStart: {
		"customData.start_time",
		"appointment.startTime",
		"appointment.start_time",
	},
	FieldEventAt: {
		"createdAt",
		"created_at",
		"timestamp",
		"data.createdAt",
		"data.created_at",
		"customData.createdAt",
		"customData.created_at",
		"opportunity.createdAt",
		"opportunity.created_at",
		"data.opportunity.createdAt",
		"contact.dateAdded",
		"contact.date_added",
	},
	FieldFullName: {
		"customData.full_name",
		"full_name",
		"contact.name",
		"contact.fullName",
	},
	FieldEmail: {
		"customData.email",
		"email",
		"contact.email",
	},
	FieldPhone: {
		"customData.phone",
		"phone",
		"contact.phone",
	},
	FieldNationalID: {
		"customData.national_id",
		"national_id",
	},
	FieldMaritalStatus: {
		"customData.marital_status",
		"customData.marital_statu",
		"marital_status",
	},
	FieldDistrict: {
		"customData.residence_district",
		"customData.residence_dist",
		"residence_district",
	},
	FieldProfession: {
		"customData.profession",
		"profession",
	},
	FieldSource: {
		"customData.source",
		"source",
		"customData.lead_source",
		"contact.source",
	},
	FieldDetail: {
		"customData.detail",
		"detail",
	},
	FieldSubDetail: {
		"customData.sub_detail",
		"sub_detail",
	},
	FieldSubSubDetail: {
		"customData.sub_sub_detail",
		"customData.sub_sub_detai",
		"sub_sub_detail",
	},
	FieldSubSubSubDetail: {
		"customData.sub_sub_sub_detail",
		"customData.sub_sub_sub_de",
	},
	FieldBirthDate: {
		"customData.birth_date",
		"customData.date_of_birth",
		"birth_date",
		"contact.dateOfBirth",
	},
	FieldInterestLevel: {
		"customData.interest_level",
		"interest_level",
	},
	FieldClientType: {
		"customData.client_type",
		"client_type",
	},
	FieldProduct: {
		"customData.product",
		"product",
	},
	FieldProject: {
		"customData.project",
		"project",
	},
	FieldPaymentMode: {
		"customData.payment_mode",
		"payment_mode",
	},
}

func pathsFor(field Field) []string {
	return fieldPaths[field]
}
