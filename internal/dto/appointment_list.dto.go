package dto

type AppointmentListDTO struct {
	ID          uint   `json:"id"`
	DoctorID    uint   `json:"doctor_id"`
	DoctorName  string `json:"doctor_name"`
	PatientID   uint   `json:"patient_id"`
	PatientName string `json:"patient_name"`
	ServiceName string `json:"service_name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
}
