// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lvm

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/internal/logger"
	"github.com/blockdevkit/blockdev/progress"
	"github.com/blockdevkit/blockdev/runner"
)

const (
	transportTimeout = 5 * time.Second
	jobPollInterval  = 500 * time.Millisecond
	callTimeoutArg   = 1
)

// Client issues method calls against the lvmdbus1 service, implementing
// the protocol of spec.md §4.4.2.
type Client struct {
	Bus      busConn
	Config   *Config
	Reporter progress.Reporter
}

func NewClient(bus busConn, cfg *Config, reporter progress.Reporter) *Client {
	if reporter == nil {
		reporter = progress.Noop
	}
	return &Client{Bus: bus, Config: cfg, Reporter: reporter}
}

// noResultPath is the D-Bus object path the service uses to mean
// "no result" / "no error" (spec.md §4.4.2 steps 5-6).
const noResultPath = dbus.ObjectPath("/")

// Call issues one lvmdbus1 method call and, if it starts a Job, polls the
// job to completion. op is a human label for logging; iface/method/path
// identify the D-Bus target; params are the method's own arguments before
// the trailing timeout+config dict the protocol always appends.
func (c *Client) Call(ctx context.Context, op string, path dbus.ObjectPath, iface, method string, params []interface{}, extra []runner.ExtraArg, lockConfig bool) (dbus.ObjectPath, error) {
	if lockConfig {
		c.Config.Lock()
		defer c.Config.Unlock()
		return c.callWithDict(ctx, op, path, iface, method, params, c.Config.buildDictLocked(extra))
	}
	return c.callWithDict(ctx, op, path, iface, method, params, c.Config.buildDict(extra))
}

// callLocked runs the protocol assuming the caller already holds
// Config's mutex and has already built the dict under it (VdoPoolCreate,
// which layers extra config into globalConfigStr for the call's
// duration before building the dict).
func (c *Client) callLocked(ctx context.Context, op string, path dbus.ObjectPath, iface, method string, params []interface{}, extra []runner.ExtraArg) (dbus.ObjectPath, error) {
	return c.callWithDict(ctx, op, path, iface, method, params, c.Config.buildDictLocked(extra))
}

func (c *Client) callWithDict(ctx context.Context, op string, path dbus.ObjectPath, iface, method string, params []interface{}, dict map[string]dbus.Variant) (dbus.ObjectPath, error) {
	args := append(append([]interface{}{}, params...), callTimeoutArg, dict)

	taskID := c.Reporter.Started(fmt.Sprintf("calling %s.%s", iface, method))
	defer c.Reporter.Finished(taskID, op)
	logger.Infof("lvm: calling %s.%s on %s", iface, method, path)

	callCtx, cancel := context.WithTimeout(ctx, transportTimeout)
	defer cancel()

	obj := c.Bus.Object(serviceName, path)
	call := obj.CallWithContext(callCtx, iface+"."+method, 0, args...)
	if call.Err != nil {
		return "", errs.New(errs.Fail, op, string(path), fmt.Sprintf("%s.%s", iface, method), call.Err)
	}

	resultPath, jobPath, err := parseReply(call.Body)
	if err != nil {
		return "", errs.New(errs.Fail, op, string(path), "unexpected reply shape", err)
	}

	if jobPath == "" || jobPath == noResultPath {
		if resultPath == noResultPath {
			return "", nil
		}
		return resultPath, nil
	}

	return c.pollJob(ctx, op, jobPath, taskID)
}

// parseReply decodes the two reply shapes named in spec.md §4.4.2 step 5:
// a ((oo)) pair of (result, job), or a bare (o) single path. godbus
// decodes an unrecognised DBus struct as a []interface{} of its fields,
// so both shapes surface as Body[0] being either a 2-element or
// 1-element slice, or (defensively) a bare ObjectPath.
func parseReply(body []interface{}) (result, job dbus.ObjectPath, err error) {
	if len(body) == 0 {
		return noResultPath, noResultPath, nil
	}
	switch v := body[0].(type) {
	case []interface{}:
		switch len(v) {
		case 2:
			r, ok1 := v[0].(dbus.ObjectPath)
			j, ok2 := v[1].(dbus.ObjectPath)
			if !ok1 || !ok2 {
				return "", "", fmt.Errorf("((oo)) reply had non-path members: %#v", v)
			}
			return r, j, nil
		case 1:
			r, ok := v[0].(dbus.ObjectPath)
			if !ok {
				return "", "", fmt.Errorf("(o) reply had a non-path member: %#v", v)
			}
			return r, noResultPath, nil
		default:
			return "", "", fmt.Errorf("unexpected reply tuple arity %d", len(v))
		}
	case dbus.ObjectPath:
		return v, noResultPath, nil
	default:
		return "", "", fmt.Errorf("unexpected reply element type %T", v)
	}
}

// pollJob implements spec.md §4.4.2 step 6: poll Complete/Percent every
// 500ms, forwarding Percent to the reporter, then read Result and (if
// "/") GetError, always Remove-ing the job object afterward.
func (c *Client) pollJob(ctx context.Context, op string, jobPath dbus.ObjectPath, taskID progress.TaskID) (dbus.ObjectPath, error) {
	jobIface := "com.redhat.lvmdbus1.Job"
	jobObj := c.Bus.Object(serviceName, jobPath)
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), transportTimeout)
		defer cancel()
		jobObj.CallWithContext(removeCtx, jobIface+".Remove", 0)
	}()

	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()

	for {
		props, err := getAllProps(ctx, jobObj, jobIface)
		if err != nil {
			return "", errs.New(errs.Fail, op, string(jobPath), "job property read", err)
		}
		if pct, ok := props["Percent"].(float64); ok {
			c.Reporter.Progress(taskID, pct, op)
		}
		complete, _ := props["Complete"].(bool)
		if complete {
			reply, err := decodeJobReply(ctx, c.Bus, jobObj, jobIface, props)
			if err != nil {
				return "", errs.New(errs.Fail, op, string(jobPath), "job result read", err)
			}
			if reply.ErrCode != 0 {
				return "", errs.New(errs.Fail, op, string(jobPath), reply.ErrMsg, nil)
			}
			return reply.ResultPath, nil
		}

		select {
		case <-ctx.Done():
			return "", errs.New(errs.Fail, op, string(jobPath), "context canceled while polling job", ctx.Err())
		case <-ticker.C:
		}
	}
}

func decodeJobReply(ctx context.Context, bus busConn, jobObj object, jobIface string, props map[string]interface{}) (jobReply, error) {
	resultPath, _ := props["Result"].(dbus.ObjectPath)
	if resultPath == "" || resultPath == noResultPath {
		callCtx, cancel := context.WithTimeout(ctx, transportTimeout)
		defer cancel()
		call := jobObj.CallWithContext(callCtx, jobIface+".GetError", 0)
		if call.Err != nil {
			return jobReply{}, call.Err
		}
		var code int32
		var msg string
		if len(call.Body) >= 2 {
			code, _ = call.Body[0].(int32)
			msg, _ = call.Body[1].(string)
		}
		return jobReply{ErrCode: code, ErrMsg: msg}, nil
	}
	return jobReply{ResultPath: resultPath}, nil
}

// getAllProps calls org.freedesktop.DBus.Properties.GetAll(iface) and
// returns the decoded a{sv} bag with its Variant wrappers stripped,
// shared by pollJob and the object-model decoders in decode.go.
func getAllProps(ctx context.Context, obj object, iface string) (map[string]interface{}, error) {
	callCtx, cancel := context.WithTimeout(ctx, transportTimeout)
	defer cancel()
	call := obj.CallWithContext(callCtx, "org.freedesktop.DBus.Properties.GetAll", 0, iface)
	if call.Err != nil {
		return nil, call.Err
	}
	if len(call.Body) == 0 {
		return map[string]interface{}{}, nil
	}
	raw, ok := call.Body[0].(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("GetAll reply was %T, not map[string]dbus.Variant", call.Body[0])
	}
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		out[k] = v.Value()
	}
	return out, nil
}
