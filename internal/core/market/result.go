package market

import "fmt"

// Result represents a market action result code
type Result int

// Action result codes, organized by category: mes, mec, mef, mem
const (
	// mesSUCCESS (0)
	MesSUCCESS Result = 0

	// mec codes (100-199): the action was well-formed but could not be
	// executed against current state, balances or authority
	MecNO_ENTRY             Result = 100 // listing/offer does not exist
	MecLISTING_INACTIVE     Result = 101
	MecOUT_OF_WINDOW        Result = 102 // outside the listing validity period
	MecBID_TOO_LOW          Result = 103
	MecREFUND_EXCEEDS_BID   Result = 104
	MecINSUFFICIENT_FUNDS   Result = 105
	MecSWAP_FAILED          Result = 106 // swap adapter could not deliver the settlement amount
	MecAUCTION_STILL_ACTIVE Result = 107
	MecOFFER_NOT_ACTIVE     Result = 108 // offer expired or already terminal
	MecNOT_RENTABLE         Result = 109
	MecNOT_ASSET_OWNER      Result = 110
	MecNOT_LISTER           Result = 111
	MecNOT_OFFEROR          Result = 112
	MecLISTING_NOT_DIRECT   Result = 113
	MecLISTING_NOT_AUCTION  Result = 114
	MecHAS_BID              Result = 115 // direct-only mutation attempted after a bid exists
	MecNO_PERMISSION        Result = 116
	MecASSET_NOT_FOUND      Result = 117

	// mef codes (-199 to -100): hard failures inside the engine
	MefFAILURE  Result = -199
	MefINTERNAL Result = -198
	MefREENTRY  Result = -197 // nested call into a guarded entry point

	// mem codes (-299 to -200): malformed action
	MemMALFORMED            Result = -299
	MemBAD_AMOUNT           Result = -298
	MemBAD_QUANTITY         Result = -297
	MemBAD_TIME_WINDOW      Result = -296
	MemBAD_EXPIRATION       Result = -295
	MemEMPTY_FIELD          Result = -294
	MemBAD_CURRENCY         Result = -293
	MemBUYOUT_BELOW_RESERVE Result = -292
	MemBAD_ACCOUNT          Result = -291
)

// String returns the canonical code name for the result
func (r Result) String() string {
	switch r {
	case MesSUCCESS:
		return "mesSUCCESS"
	case MecNO_ENTRY:
		return "mecNO_ENTRY"
	case MecLISTING_INACTIVE:
		return "mecLISTING_INACTIVE"
	case MecOUT_OF_WINDOW:
		return "mecOUT_OF_WINDOW"
	case MecBID_TOO_LOW:
		return "mecBID_TOO_LOW"
	case MecREFUND_EXCEEDS_BID:
		return "mecREFUND_EXCEEDS_BID"
	case MecINSUFFICIENT_FUNDS:
		return "mecINSUFFICIENT_FUNDS"
	case MecSWAP_FAILED:
		return "mecSWAP_FAILED"
	case MecAUCTION_STILL_ACTIVE:
		return "mecAUCTION_STILL_ACTIVE"
	case MecOFFER_NOT_ACTIVE:
		return "mecOFFER_NOT_ACTIVE"
	case MecNOT_RENTABLE:
		return "mecNOT_RENTABLE"
	case MecNOT_ASSET_OWNER:
		return "mecNOT_ASSET_OWNER"
	case MecNOT_LISTER:
		return "mecNOT_LISTER"
	case MecNOT_OFFEROR:
		return "mecNOT_OFFEROR"
	case MecLISTING_NOT_DIRECT:
		return "mecLISTING_NOT_DIRECT"
	case MecLISTING_NOT_AUCTION:
		return "mecLISTING_NOT_AUCTION"
	case MecHAS_BID:
		return "mecHAS_BID"
	case MecNO_PERMISSION:
		return "mecNO_PERMISSION"
	case MecASSET_NOT_FOUND:
		return "mecASSET_NOT_FOUND"
	case MefFAILURE:
		return "mefFAILURE"
	case MefINTERNAL:
		return "mefINTERNAL"
	case MefREENTRY:
		return "mefREENTRY"
	case MemMALFORMED:
		return "memMALFORMED"
	case MemBAD_AMOUNT:
		return "memBAD_AMOUNT"
	case MemBAD_QUANTITY:
		return "memBAD_QUANTITY"
	case MemBAD_TIME_WINDOW:
		return "memBAD_TIME_WINDOW"
	case MemBAD_EXPIRATION:
		return "memBAD_EXPIRATION"
	case MemEMPTY_FIELD:
		return "memEMPTY_FIELD"
	case MemBAD_CURRENCY:
		return "memBAD_CURRENCY"
	case MemBUYOUT_BELOW_RESERVE:
		return "memBUYOUT_BELOW_RESERVE"
	case MemBAD_ACCOUNT:
		return "memBAD_ACCOUNT"
	default:
		return fmt.Sprintf("Unknown(%d)", r)
	}
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == MesSUCCESS
}

// IsMec returns true if this is a mec (execution failure) code
func (r Result) IsMec() bool {
	return r >= 100 && r < 200
}

// IsMef returns true if this is a mef (hard failure) code
func (r Result) IsMef() bool {
	return r >= -199 && r <= -100
}

// IsMem returns true if this is a mem (malformed) code
func (r Result) IsMem() bool {
	return r >= -299 && r <= -200
}

// IsApplied returns true if the action mutated state.
// Only successful actions are applied; every failure rolls back in full.
func (r Result) IsApplied() bool {
	return r.IsSuccess()
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case MesSUCCESS:
		return "The action was applied."
	case MecNO_ENTRY:
		return "The referenced listing or offer does not exist."
	case MecOUT_OF_WINDOW:
		return "The listing is outside its validity period."
	case MecBID_TOO_LOW:
		return "Bid is below the minimal acceptable amount."
	case MecREFUND_EXCEEDS_BID:
		return "Refund owed to the displaced bidder exceeds the new bid."
	case MecINSUFFICIENT_FUNDS:
		return "Insufficient balance to cover the required amount."
	case MecSWAP_FAILED:
		return "Swap could not deliver the required settlement amount."
	case MecAUCTION_STILL_ACTIVE:
		return "The auction has not ended yet."
	case MecOFFER_NOT_ACTIVE:
		return "The offer is expired or no longer in Created state."
	case MecNOT_RENTABLE:
		return "The asset does not support rental transfers."
	case MecNOT_ASSET_OWNER:
		return "Caller does not hold transfer rights for the asset."
	case MecNOT_LISTER:
		return "Caller is not the lister."
	case MecNOT_OFFEROR:
		return "Caller is not the offeror."
	case MecLISTING_NOT_DIRECT:
		return "Operation is valid only for direct listings."
	case MecLISTING_NOT_AUCTION:
		return "Operation is valid only for auction listings."
	case MecHAS_BID:
		return "A bid exists for this listing."
	case MefREENTRY:
		return "Nested call into a guarded entry point."
	case MemBAD_TIME_WINDOW:
		return "Listing start must precede end."
	case MemBUYOUT_BELOW_RESERVE:
		return "Buyout price must not be below the reserve price."
	case MemBAD_QUANTITY:
		return "Quantity must be exactly 1."
	default:
		return r.String()
	}
}
