package aravis

import "fmt"

// BufferStatus is the fill state of a buffer (ArvBufferStatus).
type BufferStatus int32

const (
	BufferStatusUnknown             BufferStatus = -1
	BufferStatusSuccess             BufferStatus = 0
	BufferStatusCleared             BufferStatus = 1
	BufferStatusTimeout             BufferStatus = 2
	BufferStatusMissingPackets      BufferStatus = 3
	BufferStatusWrongPacketID       BufferStatus = 4
	BufferStatusSizeMismatch        BufferStatus = 5
	BufferStatusFilling             BufferStatus = 6
	BufferStatusAborted             BufferStatus = 7
	BufferStatusPayloadNotSupported BufferStatus = 8
)

var bufferStatusNames = map[BufferStatus]string{
	BufferStatusUnknown:             "unknown",
	BufferStatusSuccess:             "success",
	BufferStatusCleared:             "cleared",
	BufferStatusTimeout:             "timeout",
	BufferStatusMissingPackets:      "missing-packets",
	BufferStatusWrongPacketID:       "wrong-packet-id",
	BufferStatusSizeMismatch:        "size-mismatch",
	BufferStatusFilling:             "filling",
	BufferStatusAborted:             "aborted",
	BufferStatusPayloadNotSupported: "payload-not-supported",
}

func (s BufferStatus) String() string {
	if n, ok := bufferStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("BufferStatus(%d)", int32(s))
}

// AcquisitionMode mirrors ArvAcquisitionMode.
type AcquisitionMode int32

const (
	AcquisitionContinuous  AcquisitionMode = 0
	AcquisitionSingleFrame AcquisitionMode = 1
	AcquisitionMultiFrame  AcquisitionMode = 2
)

func (m AcquisitionMode) String() string {
	switch m {
	case AcquisitionContinuous:
		return "Continuous"
	case AcquisitionSingleFrame:
		return "SingleFrame"
	case AcquisitionMultiFrame:
		return "MultiFrame"
	}
	return fmt.Sprintf("AcquisitionMode(%d)", int32(m))
}

// Auto mirrors ArvAuto, used by exposure and gain.
type Auto int32

const (
	AutoOff        Auto = 0
	AutoOnce       Auto = 1
	AutoContinuous Auto = 2
)

func (a Auto) String() string {
	switch a {
	case AutoOff:
		return "Off"
	case AutoOnce:
		return "Once"
	case AutoContinuous:
		return "Continuous"
	}
	return fmt.Sprintf("Auto(%d)", int32(a))
}

// AccessMode is the effective access mode of a GenICam feature.
type AccessMode int

const (
	AccessUndefined AccessMode = iota
	AccessNotImplemented
	AccessNotAvailable
	AccessReadOnly
	AccessWriteOnly
	AccessReadWrite
)

// accessModeFromNative maps ArvGcAccessMode (RO=0, WO=1, RW=2, UNDEFINED=-1).
func accessModeFromNative(v int32) AccessMode {
	switch v {
	case 0:
		return AccessReadOnly
	case 1:
		return AccessWriteOnly
	case 2:
		return AccessReadWrite
	}
	return AccessUndefined
}

// Short returns the two letter form used in listings.
func (a AccessMode) Short() string {
	switch a {
	case AccessReadWrite:
		return "RW"
	case AccessReadOnly:
		return "RO"
	case AccessWriteOnly:
		return "WO"
	case AccessNotAvailable:
		return "NA"
	case AccessNotImplemented:
		return "NI"
	}
	return "??"
}

func (a AccessMode) String() string {
	switch a {
	case AccessNotImplemented:
		return "NotImplemented"
	case AccessNotAvailable:
		return "NotAvailable"
	case AccessReadOnly:
		return "ReadOnly"
	case AccessWriteOnly:
		return "WriteOnly"
	case AccessReadWrite:
		return "ReadWrite"
	}
	return "Undefined"
}

// Visibility is the GenICam visibility level of a feature.
type Visibility int

const (
	VisibilityUndefined Visibility = iota
	VisibilityBeginner
	VisibilityExpert
	VisibilityGuru
	VisibilityInvisible
)

// visibilityFromNative maps ArvGcVisibility (INVISIBLE=0, GURU=1, EXPERT=2,
// BEGINNER=3, UNDEFINED=-1).
func visibilityFromNative(v int32) Visibility {
	switch v {
	case 0:
		return VisibilityInvisible
	case 1:
		return VisibilityGuru
	case 2:
		return VisibilityExpert
	case 3:
		return VisibilityBeginner
	}
	return VisibilityUndefined
}

func (v Visibility) String() string {
	switch v {
	case VisibilityBeginner:
		return "Beginner"
	case VisibilityExpert:
		return "Expert"
	case VisibilityGuru:
		return "Guru"
	case VisibilityInvisible:
		return "Invisible"
	}
	return "Undefined"
}

// FeatureType is the kind of a GenICam feature node.
type FeatureType int

const (
	FeatureUnknown FeatureType = iota
	FeatureInteger
	FeatureFloat
	FeatureString
	FeatureBoolean
	FeatureCommand
	FeatureEnumeration
	FeatureCategory
	FeatureRegister
)

var featureTypeNames = [...]string{
	FeatureUnknown:     "Unknown",
	FeatureInteger:     "Integer",
	FeatureFloat:       "Float",
	FeatureString:      "String",
	FeatureBoolean:     "Boolean",
	FeatureCommand:     "Command",
	FeatureEnumeration: "Enumeration",
	FeatureCategory:    "Category",
	FeatureRegister:    "Register",
}

func (t FeatureType) String() string {
	if t >= 0 && int(t) < len(featureTypeNames) {
		return featureTypeNames[t]
	}
	return fmt.Sprintf("FeatureType(%d)", int(t))
}
