package junghome

import (
	"testing"
)

// recordingHandler captures push dispatches.
type recordingHandler struct {
	enumerations [][]FunctionDescriptor
	updates      []FunctionDescriptor
	signals      int
}

func (r *recordingHandler) HandleEnumeration(descriptors []FunctionDescriptor) {
	r.enumerations = append(r.enumerations, descriptors)
}

func (r *recordingHandler) HandleDeviceUpdate(fd FunctionDescriptor) {
	r.updates = append(r.updates, fd)
}

func (r *recordingHandler) HandleDatapointSignal() {
	r.signals++
}

func newDispatchClient(handler PushHandler) *PushClient {
	return NewPushClient(PushConfig{Host: "gateway.local", Token: "t"}, handler)
}

func TestPushClient_DispatchFunctions(t *testing.T) {
	h := &recordingHandler{}
	p := newDispatchClient(h)

	p.dispatch([]byte(`{"type":"functions","data":[{"id":"f1","type":"OnOff"}]}`))

	if len(h.enumerations) != 1 {
		t.Fatalf("enumerations = %d, want 1", len(h.enumerations))
	}
	if h.enumerations[0][0].ID != "f1" {
		t.Errorf("descriptor = %+v", h.enumerations[0][0])
	}
}

func TestPushClient_DispatchSingleFunction(t *testing.T) {
	h := &recordingHandler{}
	p := newDispatchClient(h)

	p.dispatch([]byte(`{"type":"function","data":{"id":"f2","label":"Blind","type":"Position"}}`))

	if len(h.updates) != 1 || h.updates[0].ID != "f2" {
		t.Errorf("updates = %+v, want one for f2", h.updates)
	}
}

func TestPushClient_DispatchDatapointSignals(t *testing.T) {
	h := &recordingHandler{}
	p := newDispatchClient(h)

	p.dispatch([]byte(`{"type":"datapoint","data":{"id":"dp1"}}`))

	if h.signals != 1 {
		t.Errorf("signals = %d, want 1", h.signals)
	}
}

func TestPushClient_DispatchIgnoresNoise(t *testing.T) {
	h := &recordingHandler{}
	p := newDispatchClient(h)

	p.dispatch([]byte(`{"type":"version","data":"2.1"}`))
	p.dispatch([]byte(`{"type":"groups","data":[]}`))
	p.dispatch([]byte(`not json at all`))
	p.dispatch([]byte(`{"type":"functions","data":"not a list"}`))

	if len(h.enumerations) != 0 || len(h.updates) != 0 || h.signals != 0 {
		t.Errorf("noise reached the handler: %+v", h)
	}
}
