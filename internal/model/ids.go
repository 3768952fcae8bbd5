package model

import "encoding/json"

// Stored backend documents may carry their key as "_id" instead of "id".
// The decoders below read the struct as usual and fall back to "_id".

func mongoID(b []byte) string {
	var doc struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return ""
	}
	return doc.ID
}

func (a *Appointment) UnmarshalJSON(b []byte) error {
	type plain Appointment
	if err := json.Unmarshal(b, (*plain)(a)); err != nil {
		return err
	}
	a.ID = firstNonEmpty(a.ID, mongoID(b))
	return nil
}

func (i *Invoice) UnmarshalJSON(b []byte) error {
	type plain Invoice
	if err := json.Unmarshal(b, (*plain)(i)); err != nil {
		return err
	}
	i.ID = firstNonEmpty(i.ID, mongoID(b))
	return nil
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	type plain Transaction
	if err := json.Unmarshal(b, (*plain)(t)); err != nil {
		return err
	}
	t.ID = firstNonEmpty(t.ID, mongoID(b))
	return nil
}

func (p *Prescription) UnmarshalJSON(b []byte) error {
	type plain Prescription
	if err := json.Unmarshal(b, (*plain)(p)); err != nil {
		return err
	}
	p.ID = firstNonEmpty(p.ID, mongoID(b))
	return nil
}

func (r *MedicalRecord) UnmarshalJSON(b []byte) error {
	type plain MedicalRecord
	if err := json.Unmarshal(b, (*plain)(r)); err != nil {
		return err
	}
	r.ID = firstNonEmpty(r.ID, mongoID(b))
	return nil
}

func (w *PatientProfileWire) UnmarshalJSON(b []byte) error {
	type plain PatientProfileWire
	if err := json.Unmarshal(b, (*plain)(w)); err != nil {
		return err
	}
	w.ID = firstNonEmpty(w.ID, mongoID(b))
	return nil
}

func (d *DoctorProfileRecord) UnmarshalJSON(b []byte) error {
	type plain DoctorProfileRecord
	if err := json.Unmarshal(b, (*plain)(d)); err != nil {
		return err
	}
	d.ID = firstNonEmpty(d.ID, mongoID(b))
	return nil
}

func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	if err := json.Unmarshal(b, (*plain)(u)); err != nil {
		return err
	}
	u.ID = firstNonEmpty(u.ID, mongoID(b))
	return nil
}
