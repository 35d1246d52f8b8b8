package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type InitializeSeatingRequest struct {
	TableCount    int `json:"tableCount"`
	SeatsPerTable int `json:"seatsPerTable"`
}

func (req *InitializeSeatingRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TableCount, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&req.SeatsPerTable, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

type AssignSeatRequest struct {
	RSVPID      string `json:"rsvpId"`
	TableNumber int    `json:"tableNumber"`
}

func (req *AssignSeatRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RSVPID, validation.Required),
		validation.Field(&req.TableNumber, validation.Required, validation.Min(1)),
	)
}

type UnassignSeatRequest struct {
	RSVPID string `json:"rsvpId"`
}

func (req *UnassignSeatRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RSVPID, validation.Required),
	)
}
