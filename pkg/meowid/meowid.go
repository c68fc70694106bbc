package meowid

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

// MeowID Format:
// Timestamp (41-bits, ms since MeowerEpoch)
// Node ID (11-bits)
// Increment (11-bits)

type MeowID = int64

const MeowerEpoch int64 = 1577836800000 // 2020-01-01 12am GMT

const (
	TimestampBits = 41
	TimestampMask = (1 << TimestampBits) - 1

	NodeIdBits = 11
	NodeIdMask = (1 << NodeIdBits) - 1

	IncrementBits = 11
	IncrementMask = (1 << IncrementBits) - 1
)

var ErrInvalidNodeId = errors.New("node id out of range")

var NodeId int64

var idIncrementLock = sync.Mutex{}
var idIncrementTs int64 = 0
var idIncrement int64 = 0

func Init(nodeId string) error {
	id, err := strconv.ParseInt(nodeId, 10, 64)
	if err != nil {
		return err
	}
	if id < 0 || id > NodeIdMask {
		return ErrInvalidNodeId
	}
	NodeId = id
	return nil
}

func GenId() MeowID {
	idIncrementLock.Lock()
	defer idIncrementLock.Unlock()

	ts := time.Now().UnixMilli()
	if ts < idIncrementTs {
		ts = idIncrementTs // clock went backwards, keep ids monotonic
	}
	if ts != idIncrementTs {
		idIncrementTs = ts
		idIncrement = 0
	} else if idIncrement >= IncrementMask {
		for ts <= idIncrementTs {
			ts = time.Now().UnixMilli()
		}
		idIncrementTs = ts
		idIncrement = 0
	} else {
		idIncrement++
	}

	id := (ts - MeowerEpoch) << (NodeIdBits + IncrementBits)
	id |= NodeId << IncrementBits
	id |= idIncrement
	return id
}

// GenIdString is GenId formatted the way the platform API expects nonces.
func GenIdString() string {
	return strconv.FormatInt(GenId(), 10)
}

type Parts struct {
	Timestamp int64
	NodeId    int64
	Increment int64
}

func Extract(id MeowID) Parts {
	return Parts{
		Timestamp: ((id >> (NodeIdBits + IncrementBits)) & TimestampMask) + MeowerEpoch,
		NodeId:    (id >> IncrementBits) & NodeIdMask,
		Increment: id & IncrementMask,
	}
}
