package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	ada "github.com/adafoundation/adawallet/pkg"
	"github.com/shopspring/decimal"
)

var httpCodeForError = map[string]int{
	string(ada.BadRequest):        400,
	string(ada.NotFound):          404,
	string(ada.AlreadyExists):     409,
	string(ada.DBConflict):        500,
	string(ada.InsufficientFunds): 402,
	string(ada.NodeError):         502,
	string(ada.KeyDecryption):     401,
	string(ada.MalformedResponse): 502,
	string(ada.UnknownError):      500,
}

func HttpStatusForError(code ada.ErrorCode) int {
	status, found := httpCodeForError[string(code)]
	if !found {
		status = http.StatusInternalServerError
	}
	return status
}

func sendResponse(w http.ResponseWriter, payload any) {
	// note: w.Header after this, so we can call sendError
	b, err := json.Marshal(payload)
	if err != nil {
		sendErrorResponse(w, http.StatusInternalServerError, "marshal", fmt.Sprintf("in json.Marshal: %s", err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store") // do not cache (Browsers cache GET forever by default)
	w.Write(b)
}

func sendBadRequest(w http.ResponseWriter, message string) {
	sendErrorResponse(w, http.StatusBadRequest, ada.BadRequest, message)
}

func sendError(w http.ResponseWriter, where string, err error) {
	var info *ada.ErrorInfo
	if errors.As(err, &info) {
		status := HttpStatusForError(info.Code)
		message := fmt.Sprintf("%s: %s", where, info.Message)
		sendErrorResponse(w, status, info.Code, message)
	} else {
		message := fmt.Sprintf("%s: %s", where, err.Error())
		sendErrorResponse(w, http.StatusInternalServerError, ada.UnknownError, message)
	}
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, code ada.ErrorCode, message string) {
	log.Printf("[!] %s: %s\n", code, message)
	// would prefer to use json.Marshal, but this avoids the need
	// to handle encoding errors arising from json.Marshal itself!
	payload := fmt.Sprintf("{\"error\":{\"code\":%q,\"message\":%q}}", code, message)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store") // do not cache (Browsers cache GET forever by default)
	w.WriteHeader(statusCode)
	w.Write([]byte(payload))
}

// adaToLovelace converts a decimal ADA amount ("1.5") into integer
// lovelace. Fractional amounts exist only at this edge; everything
// inside the engine is integer lovelace.
func adaToLovelace(amount string) (ada.Lovelace, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, ada.NewErr(ada.BadRequest, "invalid amount: %q", amount)
	}
	scaled := d.Mul(decimal.New(1, 6))
	if !scaled.IsInteger() {
		return 0, ada.NewErr(ada.BadRequest, "amount %q has more than 6 decimal places", amount)
	}
	if !scaled.IsPositive() {
		return 0, ada.NewErr(ada.BadRequest, "amount must be positive")
	}
	return scaled.IntPart(), nil
}
