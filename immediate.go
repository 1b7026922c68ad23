package gtimer

// Immediate 立即任务, 在本轮循环结束时执行.
type Immediate struct {
	task
	tick uint64 // 创建时的轮次.
}

func (im *Immediate) base() *task {
	if im == nil {
		return nil
	}
	return &im.task
}

// Active 是否仍待执行.
func (im *Immediate) Active() bool { return im != nil && im.active() }

// HasRef 是否维持宿主存活.
func (im *Immediate) HasRef() bool { return im != nil && im.is(stateRefed) }

// Ref 维持宿主存活.
func (im *Immediate) Ref() *Immediate {
	im.s.Ref(im)
	return im
}

// Unref 不再维持宿主存活.
func (im *Immediate) Unref() *Immediate {
	im.s.Unref(im)
	return im
}

// Close 取消立即任务.
func (im *Immediate) Close() {
	im.s.Clear(im)
}
