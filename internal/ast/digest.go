package ast

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/zeebo/xxh3"
)

// Each node hashes a short discriminant tag, its own literal fields and the
// digests of its children with XXH3-128. Strings and child lists are length
// prefixed so adjacent fields cannot alias. Offsets are never written.

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

type hashWriter struct {
	h   *xxh3.Hasher
	buf [8]byte
}

func newHashWriter(tag string) *hashWriter {
	w := &hashWriter{h: xxh3.New()}
	_, _ = w.h.WriteString(tag)
	return w
}

func (w *hashWriter) raw(b []byte) { _, _ = w.h.Write(b) }

func (w *hashWriter) u64(n uint64) {
	binary.LittleEndian.PutUint64(w.buf[:], n)
	_, _ = w.h.Write(w.buf[:])
}

func (w *hashWriter) count(n int) { w.u64(uint64(n)) }

func (w *hashWriter) str(s string) {
	w.count(len(s))
	_, _ = w.h.WriteString(s)
}

func (w *hashWriter) boolean(b bool) {
	if b {
		w.raw([]byte{1})
		return
	}
	w.raw([]byte{0})
}

func (w *hashWriter) digest(d Digest) { w.raw(d[:]) }

func (w *hashWriter) finish(b *Base) Digest {
	d := Digest(w.h.Sum128().Bytes())
	if b != nil {
		b.Digest = &d
	}
	return d
}

var nilDigest = Digest(xxh3.HashString128("nil").Bytes())

// ComputeDigest recomputes the digest of the whole program and refreshes the
// cache of every node on the way. Cached values are never trusted, so the
// result is valid after any mutation.
func (p *Program) ComputeDigest() Digest {
	return digestProgram(p)
}

// ComputeDigest recomputes the digest of e and its subtree.
func ComputeDigest(e Expr) Digest {
	return digestExpr(e)
}

func digestProgram(p *Program) Digest {
	if p == nil {
		return nilDigest
	}
	w := newHashWriter("PROGRAM")
	w.count(len(p.Body))
	for _, item := range p.Body {
		w.digest(digestBodyItem(item))
	}
	w.digest(digestNonCodeMeta(&p.NonCodeMeta))
	return w.finish(&p.Base)
}

func digestBodyItem(item BodyItem) Digest {
	switch it := item.(type) {
	case *ImportStatement:
		w := newHashWriter("ImportStatement")
		w.count(len(it.Items))
		for _, ii := range it.Items {
			iw := newHashWriter("ImportItem")
			iw.digest(digestExpr(ii.Name))
			if ii.Alias != nil {
				iw.boolean(true)
				iw.digest(digestExpr(ii.Alias))
			} else {
				iw.boolean(false)
			}
			w.digest(iw.finish(&ii.Base))
		}
		w.str(it.Path)
		w.str(it.RawPath)
		return w.finish(&it.Base)
	case *ExpressionStatement:
		w := newHashWriter("ExpressionStatement")
		w.digest(digestExpr(it.Expression))
		return w.finish(&it.Base)
	case *VariableDeclaration:
		w := newHashWriter("VariableDeclaration")
		w.count(len(it.Declarations))
		for _, d := range it.Declarations {
			dw := newHashWriter("VariableDeclarator")
			dw.digest(digestExpr(d.ID))
			dw.digest(digestExpr(d.Init))
			w.digest(dw.finish(&d.Base))
		}
		if it.Visibility == VisibilityExport {
			w.raw([]byte{1})
		} else {
			w.raw([]byte{0})
		}
		if it.Kind == KindFn {
			w.raw([]byte{3})
		} else {
			w.raw([]byte{2})
		}
		return w.finish(&it.Base)
	case *ReturnStatement:
		w := newHashWriter("ReturnStatement")
		w.digest(digestExpr(it.Argument))
		return w.finish(&it.Base)
	}
	return nilDigest
}

func digestExpr(e Expr) Digest {
	switch n := e.(type) {
	case nil:
		return nilDigest
	case *Literal:
		w := newHashWriter("Literal")
		switch n.Value.Kind {
		case LiteralString:
			w.raw([]byte{'s'})
			w.str(n.Value.Str)
		case LiteralBool:
			w.raw([]byte{'b'})
			w.boolean(n.Value.Bool)
		default:
			w.raw([]byte{'n'})
			w.u64(math.Float64bits(n.Value.Number))
		}
		w.str(n.Raw)
		return w.finish(&n.Base)
	case *Identifier:
		w := newHashWriter("Identifier")
		w.str(n.Name)
		return w.finish(&n.Base)
	case *TagDeclarator:
		w := newHashWriter("TagDeclarator")
		w.str(n.Name)
		return w.finish(&n.Base)
	case *BinaryExpression:
		w := newHashWriter("BinaryExpression")
		w.raw(n.Operator.digestTag())
		w.digest(digestExpr(n.Left))
		w.digest(digestExpr(n.Right))
		return w.finish(&n.Base)
	case *UnaryExpression:
		w := newHashWriter("UnaryExpression")
		w.raw(n.Operator.digestTag())
		w.digest(digestExpr(n.Argument))
		return w.finish(&n.Base)
	case *FunctionExpression:
		w := newHashWriter("FunctionExpression")
		w.count(len(n.Params))
		for _, p := range n.Params {
			w.digest(digestParam(p))
		}
		w.digest(digestProgram(n.Body))
		w.digest(digestArgType(n.ReturnType))
		return w.finish(&n.Base)
	case *CallExpression:
		w := newHashWriter("CallExpression")
		w.digest(digestExpr(n.Callee))
		w.count(len(n.Arguments))
		for _, a := range n.Arguments {
			w.digest(digestExpr(a))
		}
		w.boolean(n.Optional)
		return w.finish(&n.Base)
	case *PipeExpression:
		w := newHashWriter("PipeExpression")
		w.count(len(n.Body))
		for _, s := range n.Body {
			w.digest(digestExpr(s))
		}
		w.digest(digestNonCodeMeta(&n.NonCodeMeta))
		return w.finish(&n.Base)
	case *PipeSubstitution:
		return newHashWriter("PipeSubstitution").finish(&n.Base)
	case *ArrayExpression:
		w := newHashWriter("ArrayExpression")
		w.count(len(n.Elements))
		for _, el := range n.Elements {
			w.digest(digestExpr(el))
		}
		w.digest(digestNonCodeMeta(&n.NonCodeMeta))
		return w.finish(&n.Base)
	case *ArrayRangeExpression:
		w := newHashWriter("ArrayRangeExpression")
		w.digest(digestExpr(n.StartElement))
		w.digest(digestExpr(n.EndElement))
		w.boolean(n.EndInclusive)
		return w.finish(&n.Base)
	case *ObjectExpression:
		w := newHashWriter("ObjectExpression")
		w.count(len(n.Properties))
		for _, p := range n.Properties {
			pw := newHashWriter("ObjectProperty")
			pw.digest(digestExpr(p.Key))
			pw.digest(digestExpr(p.Value))
			w.digest(pw.finish(&p.Base))
		}
		w.digest(digestNonCodeMeta(&n.NonCodeMeta))
		return w.finish(&n.Base)
	case *MemberExpression:
		w := newHashWriter("MemberExpression")
		w.digest(digestExpr(n.Object))
		w.digest(digestExpr(n.Property))
		w.boolean(n.Computed)
		return w.finish(&n.Base)
	case *IfExpression:
		w := newHashWriter("IfExpression")
		w.digest(digestExpr(n.Cond))
		w.digest(digestProgram(n.ThenVal))
		w.count(len(n.ElseIfs))
		for _, ei := range n.ElseIfs {
			ew := newHashWriter("ElseIf")
			ew.digest(digestExpr(ei.Cond))
			ew.digest(digestProgram(ei.ThenVal))
			w.digest(ew.finish(&ei.Base))
		}
		w.digest(digestProgram(n.FinalElse))
		return w.finish(&n.Base)
	case *None:
		return newHashWriter("KclNone").finish(&n.Base)
	}
	return nilDigest
}

func digestParam(p *Parameter) Digest {
	w := newHashWriter("Parameter")
	w.digest(digestExpr(p.Identifier))
	w.digest(digestArgType(p.Type))
	w.boolean(p.Optional)
	d := w.finish(nil)
	p.Digest = &d
	return d
}

func digestArgType(t *FnArgType) Digest {
	if t == nil {
		return nilDigest
	}
	w := newHashWriter("FnArgType")
	w.u64(uint64(t.Kind))
	w.str(string(t.Primitive))
	w.count(len(t.Fields))
	for _, f := range t.Fields {
		w.digest(digestParam(f))
	}
	return w.finish(nil)
}

func digestNonCodeMeta(m *NonCodeMeta) Digest {
	w := newHashWriter("NonCodeMeta")
	keys := m.Keys()
	w.count(len(keys))
	for _, k := range keys {
		w.count(k)
		nodes := m.NonCodeNodes[k]
		w.count(len(nodes))
		for _, n := range nodes {
			w.digest(digestNonCodeNode(n))
		}
	}
	w.count(len(m.Start))
	for _, n := range m.Start {
		w.digest(digestNonCodeNode(n))
	}
	d := w.finish(nil)
	m.Digest = &d
	return d
}

func digestNonCodeNode(n *NonCodeNode) Digest {
	w := newHashWriter("NonCodeNode")
	w.str(string(n.Value.Kind))
	w.str(n.Value.Value)
	if n.Value.Kind != NonCodeShebang && n.Value.Kind != NonCodeNewLine {
		w.raw(n.Value.Style.digestTag())
	}
	return w.finish(&n.Base)
}
